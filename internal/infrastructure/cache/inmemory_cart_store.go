package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// cartEntry is one stored session cart with its expiration
type cartEntry struct {
	payload   []byte
	expiresAt time.Time
}

// InMemoryCartStore implements the session cart store with an in-memory map.
// This is suitable for single-instance deployments and testing. Carts are
// stored as JSON snapshots so callers never observe each other's mutations,
// matching the Redis store's semantics.
type InMemoryCartStore struct {
	mu        sync.RWMutex
	entries   map[string]cartEntry
	ttl       time.Duration
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCartStore creates an in-memory session cart store.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryCartStore(ttl time.Duration) *InMemoryCartStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	store := &InMemoryCartStore{
		entries:  make(map[string]cartEntry),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Find loads a session cart. Expired entries read as missing even before
// the cleanup loop removes them.
func (s *InMemoryCartStore) Find(ctx context.Context, key cart.Key) (*cart.Cart, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	e, exists := s.entries[key.String()]
	s.mu.RUnlock()

	if !exists || time.Now().After(e.expiresAt) {
		return nil, shared.ErrNotFound
	}

	var c cart.Cart
	if err := json.Unmarshal(e.payload, &c); err != nil {
		return nil, err
	}
	if !c.Active {
		return nil, shared.ErrNotFound
	}
	return &c, nil
}

// Save stores a snapshot of the cart and resets its TTL
func (s *InMemoryCartStore) Save(ctx context.Context, c *cart.Cart) error {
	key := c.Key()
	if err := key.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key.String()] = cartEntry{
		payload:   payload,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Delete drops the cart. Deleting a missing cart is a no-op.
func (s *InMemoryCartStore) Delete(ctx context.Context, key cart.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key.String())
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryCartStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries. It only reclaims memory;
// reservations held by an expired cart are untouched.
func (s *InMemoryCartStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
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

func (s *InMemoryCartStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of stored carts (for testing/monitoring)
func (s *InMemoryCartStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryCartStore implements cart.Repository
var _ cart.Repository = (*InMemoryCartStore)(nil)
