package foundry

import (
	"context"
	"database/sql"
	"sync"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = sql.ErrNoRows

// StudioCache is an in-memory cache of the studio aggregate with TTL. The
// dashboard and every workspace render read fonts through it.
type StudioCache struct {
	mu      sync.RWMutex
	studio  *Studio
	fetched time.Time
	ttl     time.Duration
	store   *Store
	id      string
}

// NewStudioCache creates a StudioCache for studio id backed by the given
// Store.
func NewStudioCache(s *Store, id string, ttl time.Duration) *StudioCache {
	return &StudioCache{store: s, id: id, ttl: ttl}
}

func (c *StudioCache) valid() bool {
	return c.studio != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *StudioCache) Invalidate() {
	c.mu.Lock()
	c.studio = nil
	c.mu.Unlock()
}

// Studio returns the cached aggregate, loading it when stale. It tries a
// read lock first and only takes the write lock when a reload is needed.
func (c *StudioCache) Studio(ctx context.Context) (Studio, error) {
	c.mu.RLock()
	if c.valid() {
		st := *c.studio
		c.mu.RUnlock()
		return st, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.valid() {
		return *c.studio, nil
	}
	st, err := c.store.Studio(ctx, c.id)
	if err != nil {
		return Studio{}, err
	}
	c.studio = &st
	c.fetched = time.Now()
	return st, nil
}

// Font returns one of the studio's fonts by id.
func (c *StudioCache) Font(ctx context.Context, id string) (FontAsset, error) {
	st, err := c.Studio(ctx)
	if err != nil {
		return FontAsset{}, err
	}
	for _, f := range st.Fonts {
		if f.ID == id {
			return f, nil
		}
	}
	return FontAsset{}, ErrNotFound
}
