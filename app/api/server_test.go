package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Semior001/newsjackal/app/feed"
	"github.com/Semior001/newsjackal/app/headlines"
	"github.com/Semior001/newsjackal/app/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type fetcherFunc func(ctx context.Context, feedURL string, src store.SourceRef) ([]store.Article, error)

func (f fetcherFunc) Fetch(ctx context.Context, feedURL string, src store.SourceRef) ([]store.Article, error) {
	return f(ctx, feedURL, src)
}

type snapshotsStub struct{}

func (snapshotsStub) Put(context.Context, string, store.Snapshot) error { return nil }
func (snapshotsStub) Get(context.Context, string) (store.Snapshot, error) {
	return store.Snapshot{}, store.ErrNotFound
}
func (snapshotsStub) Close() error { return nil }

func testRouter(t *testing.T, f headlines.Fetcher) *gin.Engine {
	t.Helper()

	sources := []feed.Source{
		{ID: "bbc", Name: "BBC News", Feeds: map[string]string{
			"general":    "https://bbc.example.com/rss.xml",
			"technology": "https://bbc.example.com/tech.xml",
		}},
		{ID: "cnn", Name: "CNN", Feeds: map[string]string{
			"general": "https://cnn.example.com/rss.xml",
		}},
	}

	svc := headlines.NewService(slog.Default(), f, sources, snapshotsStub{}, time.Minute)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewServer(slog.Default(), svc).Register(r)
	return r
}

func get(t *testing.T, r *gin.Engine, url string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, http.NoBody)
	r.ServeHTTP(w, req)

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		return w, nil
	}
	return w, body
}

func articlesFor(src store.SourceRef, n int) []store.Article {
	out := make([]store.Article, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, store.Article{
			Source:      src,
			Title:       fmt.Sprintf("%s-%d", src.ID, i),
			PublishedAt: fmt.Sprintf("2023-07-0%dT10:00:00Z", i+1),
		})
	}
	return out
}

func TestServer_health(t *testing.T) {
	r := testRouter(t, fetcherFunc(func(context.Context, string, store.SourceRef) ([]store.Article, error) {
		return nil, nil
	}))

	w, body := get(t, r, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"status": "ok"}, body)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestServer_sources(t *testing.T) {
	r := testRouter(t, fetcherFunc(func(context.Context, string, store.SourceRef) ([]store.Article, error) {
		return nil, nil
	}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sources", http.NoBody))
	require.Equal(t, http.StatusOK, w.Code)

	var body []struct {
		ID         string   `json:"id"`
		Name       string   `json:"name"`
		Categories []string `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	require.Len(t, body, 2)
	assert.Equal(t, "bbc", body[0].ID)
	assert.Equal(t, "BBC News", body[0].Name)
	assert.Equal(t, []string{"general", "technology"}, body[0].Categories)
	assert.Equal(t, "cnn", body[1].ID)
}

func TestServer_topHeadlines(t *testing.T) {
	r := testRouter(t, fetcherFunc(func(_ context.Context, _ string, src store.SourceRef) ([]store.Article, error) {
		return articlesFor(src, 4), nil
	}))

	w, body := get(t, r, "/api/top-headlines?category=general")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 8, body["totalResults"])
	// default page size is 9, all 8 fit on the first page
	assert.Len(t, body["articles"], 8)
}

func TestServer_topHeadlines_pagination(t *testing.T) {
	r := testRouter(t, fetcherFunc(func(_ context.Context, _ string, src store.SourceRef) ([]store.Article, error) {
		if src.ID != "bbc" {
			return nil, nil
		}
		return articlesFor(src, 7), nil
	}))

	tbl := []struct {
		url       string
		total     int
		pageItems int
	}{
		{"/api/top-headlines?page=1&pageSize=3", 7, 3},
		{"/api/top-headlines?page=2&pageSize=3", 7, 3},
		{"/api/top-headlines?page=3&pageSize=3", 7, 1},
		{"/api/top-headlines?page=4&pageSize=3", 7, 0},
		{"/api/top-headlines?page=100&pageSize=3", 7, 0},
		// junk paging params fall back to defaults
		{"/api/top-headlines?page=-1&pageSize=nope", 7, 7},
	}

	for _, tt := range tbl {
		t.Run(tt.url, func(t *testing.T) {
			w, body := get(t, r, tt.url)
			require.Equal(t, http.StatusOK, w.Code)
			assert.EqualValues(t, tt.total, body["totalResults"])

			articles, ok := body["articles"].([]any)
			require.True(t, ok, "articles must be an array even when empty")
			assert.Len(t, articles, tt.pageItems)
		})
	}
}

func TestServer_topHeadlines_sourceFilter(t *testing.T) {
	var calls int32
	r := testRouter(t, fetcherFunc(func(_ context.Context, _ string, src store.SourceRef) ([]store.Article, error) {
		atomic.AddInt32(&calls, 1)
		return articlesFor(src, 1), nil
	}))

	_, body := get(t, r, "/api/top-headlines?source=bbc")
	assert.EqualValues(t, 1, body["totalResults"])
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	// unknown source silently falls back to all configured sources
	_, body = get(t, r, "/api/top-headlines?source=unknownsource")
	assert.EqualValues(t, 2, body["totalResults"])
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestServer_topHeadlines_categoryLowercased(t *testing.T) {
	var gotURL string
	r := testRouter(t, fetcherFunc(func(_ context.Context, feedURL string, _ store.SourceRef) ([]store.Article, error) {
		gotURL = feedURL
		return nil, nil
	}))

	_, body := get(t, r, "/api/top-headlines?source=bbc&category=TECHNOLOGY")
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "https://bbc.example.com/tech.xml", gotURL)
}

func TestServer_topHeadlines_failingSourceStillOK(t *testing.T) {
	r := testRouter(t, fetcherFunc(func(_ context.Context, _ string, src store.SourceRef) ([]store.Article, error) {
		if src.ID == "cnn" {
			return nil, fmt.Errorf("%w: bad status code: 500", feed.ErrFetch)
		}
		return articlesFor(src, 2), nil
	}))

	w, body := get(t, r, "/api/top-headlines")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.EqualValues(t, 2, body["totalResults"])
}

func TestServer_cacheStats(t *testing.T) {
	r := testRouter(t, fetcherFunc(func(_ context.Context, _ string, src store.SourceRef) ([]store.Article, error) {
		return articlesFor(src, 1), nil
	}))

	get(t, r, "/api/top-headlines") // miss
	get(t, r, "/api/top-headlines") // hit

	w, body := get(t, r, "/api/cache/stats")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["hits"])
	assert.EqualValues(t, 1, body["misses"])
}

func TestServer_recoversPanicToErrorPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	// a server without a service panics on first use; the middleware must
	// turn that into the structured error payload
	NewServer(slog.Default(), nil).Register(r)

	w, body := get(t, r, "/api/sources")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", body["status"])
	assert.NotEmpty(t, body["message"])
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{1, 2}, paginate(items, 1, 2))
	assert.Equal(t, []int{3, 4}, paginate(items, 2, 2))
	assert.Equal(t, []int{5}, paginate(items, 3, 2))
	assert.Equal(t, []int{}, paginate(items, 4, 2))
	assert.Equal(t, []int{1, 2, 3, 4, 5}, paginate(items, 1, 50))
	assert.Equal(t, []int{}, paginate([]int{}, 1, 9))
}
