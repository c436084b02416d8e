package internal

import (
	"github.com/dealmungchi/jobcrawler/services/cache"
	"github.com/dealmungchi/jobcrawler/services/publisher"
)

// Dependencies holds all service dependencies
type Dependencies struct {
	// Cache is nil when no memcache server is reachable
	Cache     cache.CacheService
	Publisher publisher.Publisher
}

// Cleanup releases every dependency that holds a connection
func (d *Dependencies) Cleanup() {
	if d.Publisher != nil {
		d.Publisher.Close()
	}
}
