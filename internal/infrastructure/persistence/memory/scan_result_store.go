package memory

import (
	"sync"

	"github.com/cybershikshax/shiksha-cli/internal/domain/scan"
)

// ScanResultStore keeps one session's results in memory, most recent first.
type ScanResultStore struct {
	mu      sync.RWMutex
	results []*scan.Result
}

// NewScanResultStore creates an empty store.
func NewScanResultStore() *ScanResultStore {
	return &ScanResultStore{}
}

// Append inserts result at the head of the sequence.
func (s *ScanResultStore) Append(result *scan.Result) {
	if result == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append([]*scan.Result{result}, s.results...)
}

// All returns a copy of the sequence, most recent first.
func (s *ScanResultStore) All() []*scan.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]*scan.Result(nil), s.results...)
}

// Summarize counts the stored results by risk level.
func (s *ScanResultStore) Summarize() scan.Summary {
	return scan.Summarize(s.All())
}

var _ scan.Store = (*ScanResultStore)(nil)
