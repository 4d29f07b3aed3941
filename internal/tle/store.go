package tle

import (
	"sync"
	"sync/atomic"
	"time"
)

// Store provides thread-safe access to the current element catalog with an
// explicit expiry. Reads are lock-free snapshot loads; replacement is a
// copy-on-write swap serialized by a single-writer mutex.
type Store struct {
	catalog atomic.Pointer[Catalog]
	ttl     time.Duration
	mu      sync.Mutex // serializes reload operations
}

// NewStore creates an empty Store. Catalogs older than ttl report as stale;
// a zero ttl disables expiry.
func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl}
}

// Get returns the current catalog, or nil if none has been loaded.
// A stale catalog is still returned; callers decide whether stale data is
// acceptable via Fresh.
func (s *Store) Get() *Catalog {
	return s.catalog.Load()
}

// Set atomically replaces the current catalog.
func (s *Store) Set(c *Catalog) {
	s.catalog.Store(c)
}

// Fresh reports whether a catalog is loaded and within its TTL.
func (s *Store) Fresh() bool {
	c := s.catalog.Load()
	if c == nil {
		return false
	}
	if s.ttl <= 0 {
		return true
	}
	return time.Since(c.LoadedAt) <= s.ttl
}

// AgeSeconds returns the age of the current catalog in seconds, or -1 if
// none is loaded.
func (s *Store) AgeSeconds() float64 {
	c := s.catalog.Load()
	if c == nil {
		return -1
	}
	return time.Since(c.LoadedAt).Seconds()
}

// Lock acquires the reload mutex. Refresh-on-expiry must hold it so only one
// writer rebuilds the catalog while readers keep serving the old snapshot.
func (s *Store) Lock() {
	s.mu.Lock()
}

// Unlock releases the reload mutex.
func (s *Store) Unlock() {
	s.mu.Unlock()
}
