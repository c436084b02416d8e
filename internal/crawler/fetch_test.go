package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealmungchi/jobcrawler/pkg/errors"
)

func TestBuildURL(t *testing.T) {
	f := NewFetcher("https://jobs.example.com/jobs", nil, nil, 0)
	raw := f.BuildURL("software  engineer", "New York", 100)

	assert.Contains(t, raw, "q=software+engineer")
	assert.Contains(t, raw, "l=New+York")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "jobs.example.com", u.Host)
	assert.Equal(t, "/jobs", u.Path)

	q := u.Query()
	assert.Equal(t, "software engineer", q.Get("q"))
	assert.Equal(t, "New York", q.Get("l"))
	assert.Equal(t, "50", q.Get("radius"))
	assert.Equal(t, "50", q.Get("limit"))
	assert.Equal(t, "30", q.Get("fromage"))
	assert.Equal(t, "100", q.Get("start"))
}

func TestNewFetcherDefaults(t *testing.T) {
	f := NewFetcher("", nil, nil, 0)
	assert.Equal(t, DefaultBaseURL, f.BaseURL)
	assert.Equal(t, "jobcrawler_rate_limited:www.indeed.com", f.CacheKey)
}

func TestFetchReturnsPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Austin", r.URL.Query().Get("l"))
		assert.Equal(t, "50", r.URL.Query().Get("start"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<div class="row"></div>`))
	}))
	defer server.Close()

	f := NewFetcher(server.URL, nil, nil, 0)
	page, err := f.Fetch(context.Background(), "go developer", "Austin", 50)
	require.NoError(t, err)
	assert.Equal(t, Target("Austin"), page.Target)
	assert.Equal(t, 50, page.Offset)
	assert.Equal(t, `<div class="row"></div>`, string(page.Body))
}

func TestFetchServerErrorIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewFetcher(server.URL, nil, nil, 0).Fetch(context.Background(), "go", "Austin", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeNetwork))
	assert.True(t, errors.IsRetryable(err))
}

func TestFetchRateLimitSetsBlock(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	mockCache := NewMockCacheService()
	f := NewFetcher(server.URL, nil, mockCache, 5*time.Minute)

	_, err := f.Fetch(context.Background(), "go", "Austin", 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeRateLimit))
	assert.Contains(t, err.Error(), "retry after 120")

	value, cacheErr := mockCache.Get(f.CacheKey)
	require.NoError(t, cacheErr)
	assert.Equal(t, "300", string(value))

	// blocked: no further request reaches the server
	_, err = f.Fetch(context.Background(), "go", "Austin", 50)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrorTypeRateLimit))
	assert.False(t, errors.IsRetryable(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}
