package worker

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"

	"github.com/dealmungchi/jobcrawler/helpers"
	"github.com/dealmungchi/jobcrawler/internal/crawler"
	"github.com/dealmungchi/jobcrawler/logger"
	"github.com/dealmungchi/jobcrawler/pkg/errors"
	"github.com/dealmungchi/jobcrawler/services/publisher"
	"github.com/dealmungchi/jobcrawler/services/store"
)

// DefaultRequestDelay is the minimum gap between two requests of one worker
const DefaultRequestDelay = time.Second

// PageFetcher retrieves one result page
type PageFetcher interface {
	Fetch(ctx context.Context, query string, target crawler.Target, offset int) (*crawler.Page, error)
}

// PageParser splits a page into posting fragments
type PageParser interface {
	Parse(page *crawler.Page) ([]crawler.PostingFragment, error)
}

// RecordExtractor builds a record from one fragment
type RecordExtractor interface {
	Extract(f crawler.PostingFragment) crawler.JobRecord
}

// Options tunes a Worker
type Options struct {
	// RequestDelay is enforced between consecutive requests of each target worker
	RequestDelay time.Duration
	// Concurrency caps how many targets are crawled at once
	Concurrency int
	// MaxRetries bounds retries of retryable fetch errors; 0 disables retrying
	MaxRetries int
	// Publisher receives every appended record; nil disables publishing
	Publisher publisher.Publisher
}

// Worker drives fetch, parse, extract and store for every target and offset
type Worker struct {
	fetcher     PageFetcher
	parser      PageParser
	extractor   RecordExtractor
	publisher   publisher.Publisher
	delay       time.Duration
	concurrency int
	maxRetries  int
	log         *logger.Logger
}

// NewWorker creates a new worker
func NewWorker(fetcher PageFetcher, parser PageParser, extractor RecordExtractor, opts Options) *Worker {
	if opts.RequestDelay <= 0 {
		opts.RequestDelay = DefaultRequestDelay
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Publisher == nil {
		opts.Publisher = publisher.Nop{}
	}

	return &Worker{
		fetcher:     fetcher,
		parser:      parser,
		extractor:   extractor,
		publisher:   opts.Publisher,
		delay:       opts.RequestDelay,
		concurrency: opts.Concurrency,
		maxRetries:  opts.MaxRetries,
		log:         logger.ForWorker(),
	}
}

// CrawlRequest describes one crawl. A single-target crawl is a one-element Targets list.
type CrawlRequest struct {
	Targets    []crawler.Target
	Query      string
	MaxResults int
}

// Validate rejects requests that must not start a crawl
func (r CrawlRequest) Validate() error {
	if len(r.Targets) == 0 {
		return errors.NewValidation("at least one target is required")
	}
	for _, t := range r.Targets {
		if helpers.CollapseSpaces(t.String()) == "" {
			return errors.NewValidation("targets must not be blank")
		}
	}
	if helpers.CollapseSpaces(r.Query) == "" {
		return errors.NewValidation("query must not be empty")
	}
	if r.MaxResults < 0 {
		return errors.NewValidation("maximum results must not be negative")
	}
	return nil
}

// Offsets returns the start offsets requested for each target
func (r CrawlRequest) Offsets() []int {
	var offsets []int
	for offset := 0; offset < r.MaxResults; offset += crawler.PageSize {
		offsets = append(offsets, offset)
	}
	return offsets
}

// PageFailure records a page that was abandoned
type PageFailure struct {
	Target crawler.Target
	Offset int
	Err    error
}

// CrawlResult is the outcome of a crawl
type CrawlResult struct {
	Store        *store.RecordStore
	PagesFetched int
	PagesFailed  int
	Failures     []PageFailure
	// Canceled is set when the crawl stopped early because ctx was done or its
	// deadline left no room for the next request
	Canceled bool
}

// collector guards the result counters shared by target workers
type collector struct {
	mu     sync.Mutex
	result *CrawlResult
}

func (c *collector) fetched() {
	c.mu.Lock()
	c.result.PagesFetched++
	c.mu.Unlock()
}

func (c *collector) failed(target crawler.Target, offset int, err error) {
	c.mu.Lock()
	c.result.PagesFailed++
	c.result.Failures = append(c.result.Failures, PageFailure{Target: target, Offset: offset, Err: err})
	c.mu.Unlock()
}

func (c *collector) canceled() {
	c.mu.Lock()
	c.result.Canceled = true
	c.mu.Unlock()
}

// Crawl runs the request and returns the records gathered. Page failures are
// logged and skipped; only an invalid request returns an error. When ctx is
// done the crawl stops before the next page and returns what it has.
func (w *Worker) Crawl(ctx context.Context, req CrawlRequest) (*CrawlResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	result := &CrawlResult{Store: store.NewRecordStore()}
	c := &collector{result: result}
	offsets := req.Offsets()
	query := helpers.CollapseSpaces(req.Query)

	start := time.Now()
	w.log.Info().
		Int("targets", len(req.Targets)).
		Int("max_results", req.MaxResults).
		Int("concurrency", w.concurrency).
		Dur("request_delay", w.delay).
		Msg("Starting crawl")

	targets := make(chan crawler.Target)
	workers := w.concurrency
	if workers > len(req.Targets) {
		workers = len(req.Targets)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// one limiter per worker keeps the delay across target boundaries
			limiter := rate.NewLimiter(rate.Every(w.delay), 1)
			for target := range targets {
				w.crawlTarget(ctx, limiter, c, query, target, offsets)
			}
		}()
	}

feed:
	for _, target := range req.Targets {
		select {
		case targets <- target:
		case <-ctx.Done():
			break feed
		}
	}
	close(targets)
	wg.Wait()

	if ctx.Err() != nil {
		c.canceled()
	}

	if err := w.publisher.Flush(context.WithoutCancel(ctx)); err != nil {
		w.log.WithError(errors.NewPublisher("failed to flush publisher", err)).Error().Msg("Publisher flush failed")
	}

	w.log.Info().
		Int("records", result.Store.Size()).
		Int("pages_fetched", result.PagesFetched).
		Int("pages_failed", result.PagesFailed).
		Bool("canceled", result.Canceled).
		Dur("elapsed", time.Since(start)).
		Msg("Crawl finished")

	return result, nil
}

// crawlTarget walks the offsets of one target sequentially
func (w *Worker) crawlTarget(ctx context.Context, limiter *rate.Limiter, c *collector, query string, target crawler.Target, offsets []int) {
	log := logger.ForTarget(target.String())
	for _, offset := range offsets {
		if ctx.Err() != nil {
			log.Info().Int("offset", offset).Msg("Crawl canceled, skipping remaining pages")
			return
		}
		if !w.crawlPage(ctx, limiter, c, log, query, target, offset) {
			log.Info().Int("offset", offset).Msg("Crawl stopped, skipping remaining pages")
			c.canceled()
			return
		}
	}
}

// crawlPage runs fetch, parse and extraction for one page. It returns false
// when the crawl must stop because ctx is done or its deadline cannot fit the
// next request.
func (w *Worker) crawlPage(ctx context.Context, limiter *rate.Limiter, c *collector, log *logger.Logger, query string, target crawler.Target, offset int) bool {
	page, err := w.fetchPage(ctx, limiter, query, target, offset)
	if err != nil {
		var wait *waitError
		if ctx.Err() != nil || stderrors.As(err, &wait) {
			return false
		}
		c.failed(target, offset, err)
		pageLog(log, offset, err).LogError(err, "Failed to fetch page")
		return true
	}

	fragments, err := w.parser.Parse(page)
	if err != nil {
		c.failed(target, offset, err)
		pageLog(log, offset, err).LogError(err, "Failed to parse page")
		return true
	}
	c.fetched()

	for _, fragment := range fragments {
		record := w.extractor.Extract(fragment)
		record.Key = c.result.Store.Append(record)

		if err := w.publisher.Publish(context.WithoutCancel(ctx), record); err != nil {
			log.Warn().
				Err(errors.NewPublisher("failed to publish record", err)).
				Int("key", record.Key).
				Msg("Publish failed")
		}
	}

	log.Debug().
		Int("offset", offset).
		Int("records", len(fragments)).
		Msg("Page processed")
	return true
}

func pageLog(log *logger.Logger, offset int, err error) *logger.Logger {
	return log.WithFields(logger.Fields{
		"offset":     offset,
		"error_type": string(errors.TypeOf(err)),
	})
}

// waitError is returned when the limiter refuses to wait, either because ctx
// is done or because its deadline comes before the next allowed request
type waitError struct{ err error }

func (e *waitError) Error() string { return "rate limiter wait: " + e.err.Error() }
func (e *waitError) Unwrap() error { return e.err }

// fetchPage waits for the limiter and fetches, retrying retryable errors up
// to maxRetries times. The fetch itself is not interrupted by cancellation.
func (w *Worker) fetchPage(ctx context.Context, limiter *rate.Limiter, query string, target crawler.Target, offset int) (*crawler.Page, error) {
	attempt := func() (*crawler.Page, error) {
		if err := limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(&waitError{err: err})
		}
		page, err := w.fetcher.Fetch(context.WithoutCancel(ctx), query, target, offset)
		if err != nil && !errors.IsRetryable(err) {
			return nil, backoff.Permanent(err)
		}
		return page, err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = w.delay
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(w.maxRetries)), ctx)

	return backoff.RetryWithData(attempt, retry)
}
