package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hospital-erp/backend/internal/domain/request"
)

// entry represents a stored token with expiration
type entry struct {
	token     string
	expiresAt time.Time
}

// InMemoryCheckoutTokenStore implements CheckoutTokenStore using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryCheckoutTokenStore struct {
	mu        sync.Mutex
	entries   map[int64]entry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCheckoutTokenStore creates a new in-memory store.
// It starts a background goroutine to clean up expired tokens.
func NewInMemoryCheckoutTokenStore() *InMemoryCheckoutTokenStore {
	store := &InMemoryCheckoutTokenStore{
		entries:  make(map[int64]entry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Issue stores token for the request, replacing any earlier token
func (s *InMemoryCheckoutTokenStore) Issue(_ context.Context, requestID int64, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[requestID] = entry{token: token, expiresAt: s.now().Add(ttl)}
	return nil
}

// Redeem deletes the token if it matches the outstanding, unexpired one
func (s *InMemoryCheckoutTokenStore) Redeem(_ context.Context, requestID int64, token string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[requestID]
	if !ok {
		return false, nil
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, requestID)
		return false, nil
	}
	if e.token != token {
		return false, nil
	}
	delete(s.entries, requestID)
	return true, nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryCheckoutTokenStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

func (s *InMemoryCheckoutTokenStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
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

func (s *InMemoryCheckoutTokenStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Size returns the number of stored tokens (for testing/monitoring)
func (s *InMemoryCheckoutTokenStore) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

var _ request.CheckoutTokenStore = (*InMemoryCheckoutTokenStore)(nil)
