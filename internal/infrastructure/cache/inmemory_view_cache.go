package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gpms/backend/internal/domain/inventory"
)

const defaultCleanupInterval = time.Minute

type viewEntry struct {
	view      *inventory.ProductView
	expiresAt time.Time
}

// InMemoryViewCache implements inventory.ViewCache using an in-memory map.
// It is suitable for single-instance deployments and testing.
type InMemoryViewCache struct {
	mu        sync.RWMutex
	entries   map[uuid.UUID]viewEntry
	ttl       time.Duration
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryViewCache creates a cache whose entries live for ttl and starts
// a background goroutine that evicts expired entries. A zero ttl never expires.
func NewInMemoryViewCache(ttl time.Duration) *InMemoryViewCache {
	c := &InMemoryViewCache{
		entries:  make(map[uuid.UUID]viewEntry),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop(defaultCleanupInterval)

	return c
}

// Get returns the cached view for productID
func (c *InMemoryViewCache) Get(_ context.Context, productID uuid.UUID) (*inventory.ProductView, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[productID]
	if !ok || c.expired(e) {
		return nil, false, nil
	}
	return e.view, true, nil
}

// Set stores view under its product ID
func (c *InMemoryViewCache) Set(_ context.Context, view *inventory.ProductView) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := viewEntry{view: view}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.entries[view.ProductID] = e
	return nil
}

// Invalidate removes the given products
func (c *InMemoryViewCache) Invalidate(_ context.Context, productIDs ...uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range productIDs {
		delete(c.entries, id)
	}
	return nil
}

// InvalidateAll drops every cached view
func (c *InMemoryViewCache) InvalidateAll(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[uuid.UUID]viewEntry)
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *InMemoryViewCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *InMemoryViewCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopChan)
		c.wg.Wait()
	})
	return nil
}

func (c *InMemoryViewCache) expired(e viewEntry) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

func (c *InMemoryViewCache) cleanupLoop(interval time.Duration) {
	defer c.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *InMemoryViewCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, id)
		}
	}
}

var _ inventory.ViewCache = (*InMemoryViewCache)(nil)
