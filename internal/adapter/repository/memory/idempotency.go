package memory

import (
	"context"
	"sync"
	"time"
)

type idempotencyEntry struct {
	response  []byte
	expiresAt time.Time
}

// IdempotencyStore keeps idempotency keys in process memory. Expired keys are
// dropped lazily on access.
type IdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idempotencyEntry
	now     func() time.Time
}

// NewIdempotencyStore creates an empty IdempotencyStore.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		entries: make(map[string]idempotencyEntry),
		now:     time.Now,
	}
}

// CheckAndSet claims key unless a live claim exists. An in-flight claim is
// reported as existing with a nil response.
func (s *IdempotencyStore) CheckAndSet(_ context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return true, e.response, nil
	}
	s.entries[key] = idempotencyEntry{response: response, expiresAt: now.Add(ttl)}
	return false, nil, nil
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(_ context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = idempotencyEntry{
		response:  append([]byte(nil), response...),
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Release forgets key.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
