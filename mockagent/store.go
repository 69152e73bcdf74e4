// ABOUTME: In-memory dataset registry with TTL cleanup and capacity limits.
// ABOUTME: Thread-safe storage for uploaded datasets keyed by uuid file IDs.
package mockagent

import (
	"bytes"
	"sync"
	"time"

	"github.com/2389-research/datachat/session"
	"github.com/google/uuid"
)

// Dataset is an uploaded file and the conversation state kept for it.
type Dataset struct {
	ID         string
	Filename   string
	Size       int
	Lines      int
	Header     string
	CreatedAt  time.Time
	LastAccess time.Time

	// Summary is the initial result pushed on first connect and replayed on reconnect.
	Summary *session.Event
	Turns   int
}

// Store holds datasets until they expire or are evicted.
type Store struct {
	mu          sync.RWMutex
	datasets    map[string]*Dataset
	maxDatasets int
	ttl         time.Duration
}

// NewStore creates a new dataset store
func NewStore(maxDatasets int, ttl time.Duration) *Store {
	return &Store{
		datasets:    make(map[string]*Dataset),
		maxDatasets: maxDatasets,
		ttl:         ttl,
	}
}

// Create registers an uploaded file and returns a copy of its dataset.
func (s *Store) Create(filename string, data []byte) Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check capacity
	if s.maxDatasets > 0 && len(s.datasets) >= s.maxDatasets {
		// Evict oldest dataset
		var oldestID string
		var oldestTime time.Time
		for id, ds := range s.datasets {
			if oldestTime.IsZero() || ds.LastAccess.Before(oldestTime) {
				oldestID = id
				oldestTime = ds.LastAccess
			}
		}
		delete(s.datasets, oldestID)
	}

	now := time.Now()
	ds := &Dataset{
		ID:         uuid.New().String(),
		Filename:   filename,
		Size:       len(data),
		Lines:      countLines(data),
		Header:     firstLine(data),
		CreatedAt:  now,
		LastAccess: now,
	}
	s.datasets[ds.ID] = ds
	return *ds
}

// Get retrieves a copy of a dataset by ID and updates its LastAccess time
func (s *Store) Get(id string) (Dataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, ok := s.datasets[id]
	if !ok {
		return Dataset{}, false
	}
	ds.LastAccess = time.Now()
	return *ds, true
}

// Update runs fn on the dataset under the store lock.
func (s *Store) Update(id string, fn func(*Dataset)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	ds, ok := s.datasets[id]
	if !ok {
		return false
	}
	fn(ds)
	ds.LastAccess = time.Now()
	return true
}

// Len returns the number of datasets held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.datasets)
}

// Cleanup removes datasets idle for longer than the TTL
func (s *Store) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	for id, ds := range s.datasets {
		if ds.LastAccess.Before(cutoff) {
			delete(s.datasets, id)
		}
	}
}

// StartCleanup starts a background cleanup goroutine and returns a stop function
func (s *Store) StartCleanup(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				s.Cleanup()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

func firstLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		data = data[:i]
	}
	return string(bytes.TrimSpace(data))
}
