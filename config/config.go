package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dealmungchi/jobcrawler/helpers"
	"github.com/dealmungchi/jobcrawler/pkg/errors"
)

// MinRequestDelay is the smallest accepted pause between requests
const MinRequestDelay = time.Second

// Publish backends
const (
	BackendNone  = "none"
	BackendRedis = "redis"
	BackendKafka = "kafka"
)

// Config represents the application configuration
type Config struct {
	// Search configuration
	BaseURL    string
	Query      string
	Targets    []string
	TargetSet  string
	MaxResults int
	// MaxResultsExplicit is set when MaxResults came from the environment or a flag
	MaxResultsExplicit bool
	TargetSetsFile     string
	TargetSets         map[string]TargetSet

	// Crawler configuration
	RequestDelay   time.Duration
	HTTPTimeout    time.Duration
	Concurrency    int
	FetchRetries   int
	RateLimitBlock time.Duration

	// Memcache configuration
	MemcacheAddr string

	// Publishing
	PublishBackend       string
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int
	KafkaBroker          string
	KafkaTopic           string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	_, maxExplicit := os.LookupEnv("MAX_RESULTS")

	return &Config{
		BaseURL:              getEnv("SEARCH_BASE_URL", "https://www.indeed.com/jobs"),
		Query:                helpers.CollapseSpaces(getEnv("SEARCH_QUERY", "")),
		Targets:              helpers.SplitList(getEnv("SEARCH_TARGETS", "")),
		TargetSet:            getEnv("TARGET_SET", ""),
		MaxResults:           getEnvInt("MAX_RESULTS", 50),
		MaxResultsExplicit:   maxExplicit,
		TargetSetsFile:       getEnv("TARGET_SETS_FILE", ""),
		TargetSets:           DefaultTargetSets(),
		RequestDelay:         time.Duration(getEnvInt("REQUEST_DELAY_MS", 1000)) * time.Millisecond,
		HTTPTimeout:          time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		Concurrency:          getEnvInt("CRAWL_CONCURRENCY", 1),
		FetchRetries:         getEnvInt("FETCH_RETRIES", 0),
		RateLimitBlock:       time.Duration(getEnvInt("RATE_LIMIT_BLOCK_SECONDS", 300)) * time.Second,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		PublishBackend:       strings.ToLower(getEnv("PUBLISH_BACKEND", BackendNone)),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "jobs"),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 10000),
		KafkaBroker:          getEnv("KAFKA_BROKER", "localhost:9092"),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "job-records"),
		Environment:          getEnv("JOBCRAWLER_ENVIRONMENT", "development"),
	}
}

// LoadTargetSetsFile merges the sets from TargetSetsFile, if any, over the built-ins
func (c *Config) LoadTargetSetsFile() error {
	if c.TargetSetsFile == "" {
		return nil
	}
	sets, err := LoadTargetSets(c.TargetSetsFile)
	if err != nil {
		return errors.NewConfiguration("failed to load target sets", err)
	}
	if c.TargetSets == nil {
		c.TargetSets = map[string]TargetSet{}
	}
	for name, set := range sets {
		c.TargetSets[name] = set
	}
	return nil
}

// Validate checks the configuration before a crawl starts
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.NewConfiguration("SEARCH_BASE_URL must not be empty", nil)
	}
	if c.RequestDelay < MinRequestDelay {
		return errors.NewConfiguration(fmt.Sprintf("request delay must be at least %v", MinRequestDelay), nil)
	}
	if c.HTTPTimeout <= 0 {
		return errors.NewConfiguration("HTTP timeout must be positive", nil)
	}
	if c.Concurrency < 1 {
		return errors.NewConfiguration("concurrency must be at least 1", nil)
	}
	if c.FetchRetries < 0 {
		return errors.NewConfiguration("fetch retries must not be negative", nil)
	}
	if c.MaxResults < 0 {
		return errors.NewConfiguration("maximum results must not be negative", nil)
	}
	switch c.PublishBackend {
	case BackendNone, BackendRedis, BackendKafka:
	default:
		return errors.NewConfiguration(fmt.Sprintf("unknown publish backend %q", c.PublishBackend), nil)
	}
	if c.TargetSet != "" {
		if _, ok := c.TargetSets[c.TargetSet]; !ok {
			return errors.NewConfiguration(fmt.Sprintf("unknown target set %q", c.TargetSet), nil)
		}
	}
	return nil
}

// ResolveTargets returns the targets and per-target maximum to crawl.
// Explicit targets win over a target set; a set's maximum applies unless
// the maximum was given explicitly.
func (c *Config) ResolveTargets() ([]string, int, error) {
	if len(c.Targets) > 0 {
		return c.Targets, c.MaxResults, nil
	}
	if c.TargetSet == "" {
		return nil, 0, errors.NewValidation("no targets given; set SEARCH_TARGETS or TARGET_SET")
	}
	set, ok := c.TargetSets[c.TargetSet]
	if !ok {
		return nil, 0, errors.NewConfiguration(fmt.Sprintf("unknown target set %q", c.TargetSet), nil)
	}
	max := c.MaxResults
	if !c.MaxResultsExplicit && set.MaxResults > 0 {
		max = set.MaxResults
	}
	return set.Targets, max, nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}
