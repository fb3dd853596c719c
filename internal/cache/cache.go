package cache

import (
	"sync"
	"time"

	"sportswire/internal/domain"
)

// Key identifies one cached result. A cached entry is reusable only on an
// exact key match: an entry computed for a 24h window must never answer a 6h
// request, even inside the TTL.
type Key struct {
	UserID int64
	Window time.Duration // zero means no recency bound
}

// Entry is the unit of reuse: a fully enriched result with its compute time.
type Entry struct {
	Key        Key
	ComputedAt time.Time
	Stories    []domain.NewsStory
}

// Store is a keyed in-memory TTL cache for pipeline results.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[Key]Entry
	stop    chan struct{}
}

// New builds an empty store with the given TTL.
func New(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		now:     time.Now,
		entries: map[Key]Entry{},
	}
}

// Get returns the entry for key if it exists and is still within TTL. Stale
// entries are evicted on sight.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, false
	}
	if s.now().Sub(entry.ComputedAt) >= s.ttl {
		delete(s.entries, key)
		return Entry{}, false
	}
	return entry, true
}

// Put overwrites the entry for key with a fresh compute timestamp. Only a
// fully successful run may call this; partial runs leave old entries intact.
func (s *Store) Put(key Key, stories []domain.NewsStory) Entry {
	entry := Entry{Key: key, ComputedAt: s.now().UTC(), Stories: stories}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()

	return entry
}

// Len reports the number of entries currently held, stale ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// StartSweeper begins periodic eviction of expired entries so the keyed
// store does not grow without bound. Calling it twice is a no-op.
func (s *Store) StartSweeper(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})

	go func(stop chan struct{}) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-stop:
				return
			}
		}
	}(s.stop)
}

// StopSweeper halts the eviction goroutine.
func (s *Store) StopSweeper() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

func (s *Store) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now()
	for key, entry := range s.entries {
		if cutoff.Sub(entry.ComputedAt) >= s.ttl {
			delete(s.entries, key)
		}
	}
}
