package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dealmungchi/jobcrawler/config"
	"github.com/dealmungchi/jobcrawler/helpers"
	"github.com/dealmungchi/jobcrawler/internal"
	"github.com/dealmungchi/jobcrawler/internal/crawler"
	"github.com/dealmungchi/jobcrawler/internal/report"
	"github.com/dealmungchi/jobcrawler/logger"
	"github.com/dealmungchi/jobcrawler/services/cache"
	"github.com/dealmungchi/jobcrawler/services/publisher"
	"github.com/dealmungchi/jobcrawler/services/worker"
)

// runOptions are the flags that only affect this invocation
type runOptions struct {
	exportPath string
	topTitles  int
	quiet      bool
}

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("Command failed: %v", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := config.LoadConfig()
	opts := runOptions{topTitles: 10}

	cmd := &cobra.Command{
		Use:           "jobcrawler",
		Short:         "Collects job postings for one or more locations and summarizes them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Query = helpers.CollapseSpaces(cfg.Query)
			if cmd.Flags().Changed("max") {
				cfg.MaxResultsExplicit = true
			}
			return run(cmd.Context(), cfg, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.Query, "query", "q", cfg.Query, "job title or search term")
	flags.StringSliceVarP(&cfg.Targets, "target", "t", cfg.Targets, "city, state or zip code to search (repeatable)")
	flags.StringVar(&cfg.TargetSet, "set", cfg.TargetSet, "name of a predefined target set")
	flags.StringVar(&cfg.TargetSetsFile, "sets-file", cfg.TargetSetsFile, "YAML file with extra target sets")
	flags.IntVarP(&cfg.MaxResults, "max", "m", cfg.MaxResults, "maximum results per target (multiples of 50)")
	flags.IntVarP(&cfg.Concurrency, "concurrency", "c", cfg.Concurrency, "targets crawled at once")
	flags.IntVar(&cfg.FetchRetries, "retries", cfg.FetchRetries, "retries for failed page fetches")
	flags.StringVar(&cfg.PublishBackend, "publish", cfg.PublishBackend, "publish records to: none, redis, kafka")
	flags.StringVarP(&opts.exportPath, "export", "o", "", "write records to this CSV file")
	flags.IntVar(&opts.topTitles, "top", opts.topTitles, "number of titles in the title table")
	flags.BoolVar(&opts.quiet, "quiet", false, "skip the summary tables")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, opts runOptions) error {
	log := logger.Default

	if err := cfg.LoadTargetSetsFile(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	targets, maxResults, err := cfg.ResolveTargets()
	if err != nil {
		return err
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("query", cfg.Query).
		Strs("targets", targets).
		Int("max_results", maxResults).
		Msg("Starting application")

	deps, err := initializeServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Cleanup()

	fetcher := crawler.NewFetcher(cfg.BaseURL, helpers.NewClient(cfg.HTTPTimeout), deps.Cache, cfg.RateLimitBlock)
	w := worker.NewWorker(
		fetcher,
		crawler.NewParser(crawler.DefaultSelectors.Posting),
		crawler.NewExtractor(crawler.DefaultSelectors),
		worker.Options{
			RequestDelay: cfg.RequestDelay,
			Concurrency:  cfg.Concurrency,
			MaxRetries:   cfg.FetchRetries,
			Publisher:    deps.Publisher,
		},
	)

	req := worker.CrawlRequest{Query: cfg.Query, MaxResults: maxResults}
	for _, t := range targets {
		req.Targets = append(req.Targets, crawler.Target(t))
	}

	result, err := w.Crawl(ctx, req)
	if err != nil {
		return err
	}

	for _, f := range result.Failures {
		log.Warn().
			Str("target", f.Target.String()).
			Int("offset", f.Offset).
			Err(f.Err).
			Msg("Page skipped")
	}
	fmt.Printf("Job done. %d postings collected.\n", result.Store.Size())

	if opts.exportPath != "" {
		if err := exportCSV(opts.exportPath, result.Store); err != nil {
			return err
		}
		log.Info().Str("path", opts.exportPath).Msg("Records exported")
	}

	if !opts.quiet {
		report.RenderSummary(os.Stdout, report.Summarize(result.Store))
		report.RenderCounts(os.Stdout, "Job count by date", "Date", report.CountByDate(result.Store))
		report.RenderCounts(os.Stdout, "Top job titles", "Job title", report.TopTitles(result.Store, opts.topTitles))
	}

	return nil
}

func exportCSV(path string, src report.RecordSource) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := report.WriteCSV(f, src); err != nil {
		f.Close()
		return fmt.Errorf("failed to write export file: %w", err)
	}
	return f.Close()
}

// initializeServices initializes the cache and the record publisher
func initializeServices(ctx context.Context, cfg *config.Config) (*internal.Dependencies, error) {
	deps := &internal.Dependencies{Publisher: publisher.Nop{}}

	if cfg.MemcacheAddr == "" {
		logger.Debug("MEMCACHE_ADDR is empty, rate limit blocks are disabled")
	} else {
		mc := cache.NewMemcacheService(cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			logger.ForCache().Warn().
				Err(err).
				Str("addr", cfg.MemcacheAddr).
				Msg("Memcache unavailable, rate limit blocks are disabled")
		} else {
			deps.Cache = mc
			logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
		}
	}

	switch cfg.PublishBackend {
	case config.BackendRedis:
		redisPublisher := publisher.NewRedisPublisher(
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStream,
			cfg.RedisStreamMaxLength,
		)
		if err := redisPublisher.Ping(ctx); err != nil {
			redisPublisher.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		deps.Publisher = redisPublisher
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	case config.BackendKafka:
		deps.Publisher = publisher.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		logger.Info("Publishing to Kafka topic %s at %s", cfg.KafkaTopic, cfg.KafkaBroker)
	}

	return deps, nil
}
