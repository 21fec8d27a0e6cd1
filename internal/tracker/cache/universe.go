// Package cache memoizes the two slow upstream reads: the token universe of
// a collection and the reconciled ownership of a wallet. Each has its own
// time-to-live; entries are replaced whole on refresh, never mutated, so a
// reader holding a snapshot is unaffected by a concurrent refresh.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/louisbranch/collectiontracker/internal/tracker/domain"
)

// DefaultUniverseMaxAge is how long a token listing stays fresh.
const DefaultUniverseMaxAge = 30 * time.Minute

// UniverseFetcher lists every token id of a collection up to pageCap.
type UniverseFetcher interface {
	CollectionTokenIDs(ctx context.Context, collectionID string, pageCap int) ([]string, error)
}

// Universe is one cached token listing: the sorted ids and when they were
// captured. The id slice is immutable once stored.
type Universe struct {
	IDs        []string
	CapturedAt time.Time
}

// UniverseCache memoizes sorted token listings per collection.
type UniverseCache struct {
	fetcher UniverseFetcher
	pageCap int
	clock   func() time.Time

	mu      sync.Mutex
	entries map[string]Universe
}

// NewUniverseCache creates a cache fetching at most pageCap ids per
// collection.
func NewUniverseCache(fetcher UniverseFetcher, pageCap int) *UniverseCache {
	return &UniverseCache{
		fetcher: fetcher,
		pageCap: pageCap,
		clock:   time.Now,
		entries: make(map[string]Universe),
	}
}

// Get returns the token universe for a collection. A stored entry younger
// than maxAge is returned unchanged unless force is set; otherwise the
// listing is re-fetched, sorted, and stored with a fresh capture time. A
// fetch failure leaves any prior entry untouched.
func (c *UniverseCache) Get(ctx context.Context, collectionID string, maxAge time.Duration, force bool) (Universe, error) {
	key := domain.NormalizeID(collectionID)

	if !force {
		c.mu.Lock()
		entry, ok := c.entries[key]
		now := c.clock()
		c.mu.Unlock()
		if ok && now.Sub(entry.CapturedAt) < maxAge {
			return entry, nil
		}
	}

	// The lock is never held across the fetch.
	ids, err := c.fetcher.CollectionTokenIDs(ctx, key, c.pageCap)
	if err != nil {
		return Universe{}, err
	}
	entry := Universe{IDs: domain.SortTokenIDs(ids), CapturedAt: c.clock()}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return entry, nil
}
