package crawler

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dealmungchi/jobcrawler/helpers"
	"github.com/dealmungchi/jobcrawler/logger"
	"github.com/dealmungchi/jobcrawler/pkg/errors"
	"github.com/dealmungchi/jobcrawler/services/cache"
)

// DefaultBaseURL is the job-search endpoint
const DefaultBaseURL = "https://www.indeed.com/jobs"

// Fetcher issues one search request per call. It neither sleeps nor retries;
// pacing belongs to the caller.
type Fetcher struct {
	BaseURL string
	Client  *http.Client
	// CacheSvc holds the block flag set after the service rate-limits us
	CacheSvc  cache.CacheService
	CacheKey  string
	BlockTime time.Duration

	log *logger.Logger
}

// NewFetcher creates a fetcher for baseURL. cacheSvc may be nil.
func NewFetcher(baseURL string, client *http.Client, cacheSvc cache.CacheService, blockTime time.Duration) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cacheKey := "jobcrawler_rate_limited"
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		cacheKey += ":" + u.Host
	}
	return &Fetcher{
		BaseURL:   baseURL,
		Client:    client,
		CacheSvc:  cacheSvc,
		CacheKey:  cacheKey,
		BlockTime: blockTime,
		log:       logger.ForFetcher(),
	}
}

// BuildURL builds the search URL for one target and start offset.
// Spaces in the query and target are encoded as '+'.
func (f *Fetcher) BuildURL(query string, target Target, offset int) string {
	params := url.Values{}
	params.Set("q", helpers.CollapseSpaces(query))
	params.Set("l", helpers.CollapseSpaces(target.String()))
	params.Set("radius", strconv.Itoa(SearchRadius))
	params.Set("limit", strconv.Itoa(PageSize))
	params.Set("fromage", strconv.Itoa(MaxAgeDays))
	params.Set("start", strconv.Itoa(offset))

	return f.BaseURL + "?" + params.Encode()
}

// Fetch retrieves the result page for target starting at offset
func (f *Fetcher) Fetch(ctx context.Context, query string, target Target, offset int) (*Page, error) {
	if f.blocked() {
		return nil, errors.NewBlocked(target.String(), offset, f.BlockTime)
	}

	pageURL := f.BuildURL(query, target, offset)
	f.log.Debug().Str("url", pageURL).Msg("Fetching page")

	body, err := helpers.FetchWithRandomHeaders(ctx, f.Client, pageURL)
	if err != nil {
		var statusErr *helpers.StatusError
		if stderrors.As(err, &statusErr) && statusErr.RateLimited() {
			f.block()
			return nil, errors.NewRateLimit(target.String(), offset, statusErr.RetryAfter)
		}
		return nil, errors.NewNetwork(target.String(), offset, "failed to fetch page", err)
	}

	return &Page{Target: target, Offset: offset, Body: body}, nil
}

func (f *Fetcher) blocked() bool {
	if f.CacheSvc == nil || f.CacheKey == "" {
		return false
	}
	_, err := f.CacheSvc.Get(f.CacheKey)
	return err == nil
}

func (f *Fetcher) block() {
	if f.CacheSvc == nil || f.CacheKey == "" || f.BlockTime <= 0 {
		return
	}
	value := []byte(fmt.Sprintf("%d", int(f.BlockTime/time.Second)))
	if err := f.CacheSvc.Set(f.CacheKey, value, f.BlockTime); err != nil {
		f.log.Warn().Err(err).Str("key", f.CacheKey).Msg("Failed to set rate limit block")
		return
	}
	f.log.Warn().Dur("block_time", f.BlockTime).Msg("Rate limited, blocking further requests")
}
