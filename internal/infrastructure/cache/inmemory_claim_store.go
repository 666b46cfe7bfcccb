package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
)

// InMemoryClaimStore implements ClaimStore using an in-memory map.
// Claims are only visible inside one process.
type InMemoryClaimStore struct {
	mu        sync.Mutex
	entries   map[string]time.Time // key -> expiry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryClaimStore creates a new in-memory claim store
// It starts a background goroutine to clean up expired claims
func NewInMemoryClaimStore() *InMemoryClaimStore {
	store := &InMemoryClaimStore{
		entries:  make(map[string]time.Time),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop(time.Minute)

	return store
}

// Claim takes key for ttl unless an unexpired claim exists
func (s *InMemoryClaimStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if expiresAt, exists := s.entries[key]; exists && now.Before(expiresAt) {
		return false, nil
	}
	s.entries[key] = now.Add(ttl)
	return true, nil
}

// Release drops the claim
func (s *InMemoryClaimStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Close stops the cleanup goroutine
// Safe to call multiple times
func (s *InMemoryClaimStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryClaimStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryClaimStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryClaimStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ shared.ClaimStore = (*InMemoryClaimStore)(nil)
