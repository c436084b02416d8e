package store

import (
	"sync"

	"github.com/dealmungchi/jobcrawler/internal/crawler"
)

// RecordStore is an append-only, ordered collection of job records.
// Keys come from a counter owned by the store, so they stay strictly
// increasing by one regardless of which goroutine appends.
type RecordStore struct {
	mu      sync.RWMutex
	nextKey int
	records []crawler.JobRecord
}

// NewRecordStore creates an empty store whose first key is 1
func NewRecordStore() *RecordStore {
	return &RecordStore{nextKey: 1}
}

// Append assigns the next key to record, stores it and returns the key
func (s *RecordStore) Append(record crawler.JobRecord) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.Key = s.nextKey
	s.nextKey++
	s.records = append(s.records, record)
	return record.Key
}

// Size returns the number of stored records
func (s *RecordStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// ForEach calls fn for every record in insertion order.
// fn must not append to the store.
func (s *RecordStore) ForEach(fn func(crawler.JobRecord)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		fn(r)
	}
}

// Records returns a copy of the stored records in insertion order
func (s *RecordStore) Records() []crawler.JobRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]crawler.JobRecord, len(s.records))
	copy(out, s.records)
	return out
}
