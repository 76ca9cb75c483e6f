// Package feed implements retrieval of remote RSS and Atom documents and
// their normalization into articles. Feeds are decoded into untyped nested
// maps, as providers disagree wildly on field shapes and namespaces, and the
// pipeline resolves every field with tolerant, best-effort lookups.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Semior001/newsjackal/app/store"
	mxj "github.com/clbanning/mxj/v2"
	"golang.org/x/exp/slog"
)

// Fetch error taxonomy: transport and upstream-status faults are reported as
// ErrFetch, malformed payloads as ErrParse. Both are recoverable per-source.
var (
	ErrFetch = errors.New("feed fetch failed")
	ErrParse = errors.New("feed parse failed")
)

func init() {
	// decode xml attributes as "@attr" keys, matching the usual
	// feed-tooling convention
	mxj.SetAttrPrefix("@")
}

// noTitle substitutes an unresolvable entry title.
const noTitle = "No Title Available"

// Fetcher retrieves feed documents and maps their entries into articles.
type Fetcher struct {
	log *slog.Logger
	cl  *http.Client
}

// NewFetcher creates a new Fetcher using the given client; the client's
// timeout is the only cancellation applied to an in-flight fetch.
func NewFetcher(lg *slog.Logger, cl *http.Client) *Fetcher {
	return &Fetcher{log: lg, cl: cl}
}

// Fetch retrieves one feed document and returns its entries normalized into
// articles attributed to the given source. Unknown feed dialects yield an
// empty list, not an error.
func (f *Fetcher) Fetch(ctx context.Context, feedURL string, src store.SourceRef) ([]store.Article, error) {
	f.log.DebugCtx(ctx, "fetching feed", slog.String("url", feedURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}

	resp, err := f.cl.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: do request: %v", ErrFetch, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			f.log.WarnCtx(ctx, "failed to close response body", slog.Any("err", err))
		}
	}()

	ok := resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices
	if !ok {
		return nil, fmt.Errorf("%w: bad status code: %d", ErrFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}

	doc, err := mxj.NewMapXml(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	entries := entriesOf(doc)

	articles := make([]store.Article, 0, len(entries))
	for _, e := range entries {
		articles = append(articles, normalize(e, src))
	}

	return articles, nil
}

// entriesOf detects the feed envelope, RSS 2.0 (rss.channel.item) or Atom
// (feed.entry), and returns its entries as a list regardless of whether the
// document carried one or many.
func entriesOf(doc map[string]any) []map[string]any {
	if rss, ok := doc["rss"].(map[string]any); ok {
		if ch, ok := rss["channel"].(map[string]any); ok {
			return entryList(ch["item"])
		}
		return nil
	}

	if fd, ok := doc["feed"].(map[string]any); ok {
		return entryList(fd["entry"])
	}

	return nil
}

func entryList(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		entries := make([]map[string]any, 0, len(t))
		for _, el := range t {
			if m, ok := el.(map[string]any); ok {
				entries = append(entries, m)
			}
		}
		return entries
	}
	return nil
}

// normalize maps one raw feed entry into the canonical article record.
// Dates are passed through verbatim in whatever format the provider used.
func normalize(entry map[string]any, src store.SourceRef) store.Article {
	title := noTitle
	if v, ok := extract(entry, "title"); ok {
		if s := textOf(v); s != "" {
			title = s
		}
	}

	var link string
	if v, ok := extract(entry, "link"); ok {
		link = linkOf(v)
	}

	rawDesc := textValue(entry, "description")
	if rawDesc == "" {
		rawDesc = textValue(entry, "summary")
	}

	pubDate := textValue(entry, "pubDate")
	if pubDate == "" {
		pubDate = textValue(entry, "published")
	}
	if pubDate == "" {
		pubDate = textValue(entry, "updated")
	}

	author := src.Name
	if v, ok := extract(entry, "author"); ok && authorOf(v) != "" {
		author = authorOf(v)
	} else if v, ok := extract(entry, "creator"); ok && authorOf(v) != "" {
		author = authorOf(v)
	}

	content := cleanText(rawDesc)

	return store.Article{
		Source:      src,
		Author:      author,
		Title:       title,
		Description: summarize(content),
		URL:         link,
		URLToImage:  resolveImage(entry),
		PublishedAt: pubDate,
		Content:     content,
	}
}
