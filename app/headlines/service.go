// Package headlines contains the aggregation service: it merges articles
// from the configured sources per category and keeps time-bounded
// aggregations in a cache to reduce upstream load.
package headlines

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Semior001/newsjackal/app/feed"
	"github.com/Semior001/newsjackal/app/store"
	cache "github.com/go-pkgz/expirable-cache/v2"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves and normalizes one feed document.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string, src store.SourceRef) ([]store.Article, error)
}

// Service aggregates headlines from the configured sources.
//
// The cache tier holds aggregated, sorted, not-yet-paginated article lists
// keyed by (selected sources, category), expiring lazily on read. Concurrent
// first misses for the same key are not coalesced: both callers fetch
// upstream and the later write wins, which is an accepted inefficiency.
type Service struct {
	log       *slog.Logger
	fetcher   Fetcher
	sources   []feed.Source
	snapshots store.SnapshotStore
	cache     cache.Cache[string, []store.Article]
}

// NewService creates a new aggregation service with the given cache TTL.
func NewService(lg *slog.Logger, f Fetcher, sources []feed.Source, snapshots store.SnapshotStore, ttl time.Duration) *Service {
	return &Service{
		log:       lg,
		fetcher:   f,
		sources:   sources,
		snapshots: snapshots,
		cache:     cache.NewCache[string, []store.Article]().WithTTL(ttl),
	}
}

// Sources returns the configured sources in configuration order.
func (s *Service) Sources() []feed.Source { return slices.Clone(s.sources) }

// CacheStat returns cache stats.
func (s *Service) CacheStat() cache.Stats { return s.cache.Stat() }

// TopHeadlines returns the aggregated articles for the requested source and
// category along with whether they came from cache. An empty or unrecognized
// sourceID selects all configured sources. The returned slice is the
// caller's own copy.
func (s *Service) TopHeadlines(ctx context.Context, sourceID, category string) ([]store.Article, bool) {
	selected := s.selectSources(sourceID)
	key := cacheKey(selected, category)

	if articles, ok := s.cache.Get(key); ok {
		s.log.DebugCtx(ctx, "using cached aggregation", slog.String("key", key))
		return slices.Clone(articles), true
	}

	articles := s.aggregate(ctx, selected, category)
	s.cache.Set(key, articles, 0)
	s.persist(ctx, key, articles)

	return slices.Clone(articles), false
}

// Invalidate drops the cached aggregation for the given source and category.
func (s *Service) Invalidate(sourceID, category string) {
	s.cache.Invalidate(cacheKey(s.selectSources(sourceID), category))
}

// aggregate fetches every selected source concurrently and merges the
// results sorted by publication date, newest first. A failing source is
// logged and omitted; partial results are expected.
func (s *Service) aggregate(ctx context.Context, sources []feed.Source, category string) []store.Article {
	var (
		mu  sync.Mutex
		all = []store.Article{}
	)

	ewg, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		src := src

		feedURL, ok := src.FeedURL(category)
		if !ok {
			s.log.DebugCtx(ctx, "source has no feed for category",
				slog.String("source", src.ID), slog.String("category", category))
			continue
		}

		ewg.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					s.log.ErrorCtx(ctx, "panic in source fetch",
						slog.String("source", src.ID), slog.Any("panic", r))
				}
			}()

			articles, err := s.fetcher.Fetch(ctx, feedURL, store.SourceRef{ID: src.ID, Name: src.Name})
			if err != nil {
				s.log.WarnCtx(ctx, "failed to fetch source",
					slog.String("source", src.ID), slog.String("url", feedURL), slog.Any("err", err))
				return nil
			}

			mu.Lock()
			all = append(all, articles...)
			mu.Unlock()
			return nil
		})
	}
	_ = ewg.Wait()

	// providers emit different date formats, so this lexical order is only
	// as good as their agreement on one; dates are never reparsed
	slices.SortStableFunc(all, func(a, b store.Article) bool {
		return a.PublishedAt > b.PublishedAt
	})

	return all
}

// persist mirrors the aggregation to durable storage, best-effort.
func (s *Service) persist(ctx context.Context, key string, articles []store.Article) {
	snap := store.Snapshot{Timestamp: time.Now().Unix(), Data: articles}
	if err := s.snapshots.Put(ctx, key, snap); err != nil {
		s.log.WarnCtx(ctx, "failed to persist snapshot", slog.String("key", key), slog.Any("err", err))
	}
}

func (s *Service) selectSources(sourceID string) []feed.Source {
	if sourceID != "" {
		if src, ok := lo.Find(s.sources, func(src feed.Source) bool { return src.ID == sourceID }); ok {
			return []feed.Source{src}
		}
	}
	return s.sources
}

// cacheKey derives the aggregation key from the selected source ids, in
// configuration order, and the category.
func cacheKey(sources []feed.Source, category string) string {
	ids := lo.Map(sources, func(s feed.Source, _ int) string { return s.ID })
	return strings.Join(append(ids, category), "-")
}
