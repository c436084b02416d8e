package publisher

import (
	"context"

	"github.com/dealmungchi/jobcrawler/internal/crawler"
)

// Publisher hands finished job records to a downstream consumer
type Publisher interface {
	// Publish sends one record
	Publish(ctx context.Context, record crawler.JobRecord) error

	// Flush runs end-of-crawl housekeeping such as stream trimming
	Flush(ctx context.Context) error

	// Close closes the publisher connection
	Close() error
}

// Nop discards every record
type Nop struct{}

func (Nop) Publish(context.Context, crawler.JobRecord) error { return nil }
func (Nop) Flush(context.Context) error                      { return nil }
func (Nop) Close() error                                     { return nil }
