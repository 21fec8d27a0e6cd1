package cache

import (
	"context"
	"sync"
	"time"

	"github.com/louisbranch/collectiontracker/internal/tracker/domain"
)

// DefaultOwnershipMaxAge is how long an ownership snapshot stays fresh.
const DefaultOwnershipMaxAge = 5 * time.Minute

// OwnershipFetcher fetches the raw token-account records of a wallet.
type OwnershipFetcher interface {
	WalletHoldings(ctx context.Context, account string) ([]domain.TokenHolding, error)
}

// Refresher schedules detached background tasks.
type Refresher interface {
	Go(name string, task func(ctx context.Context) error)
}

// Snapshot is one reconciled ownership map with its capture time.
type Snapshot struct {
	Owned      domain.OwnershipMap
	CapturedAt time.Time
}

// OwnershipCache memoizes reconciled wallet ownership per user.
type OwnershipCache struct {
	fetcher OwnershipFetcher
	runner  Refresher
	maxAge  time.Duration
	clock   func() time.Time

	mu      sync.Mutex
	entries map[string]Snapshot
}

// NewOwnershipCache creates a cache whose entries stay fresh for maxAge.
func NewOwnershipCache(fetcher OwnershipFetcher, runner Refresher, maxAge time.Duration) *OwnershipCache {
	if maxAge <= 0 {
		maxAge = DefaultOwnershipMaxAge
	}
	return &OwnershipCache{
		fetcher: fetcher,
		runner:  runner,
		maxAge:  maxAge,
		clock:   time.Now,
		entries: make(map[string]Snapshot),
	}
}

// Get returns the cached snapshot for a user, if one exists.
func (c *OwnershipCache) Get(userID string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snapshot, ok := c.entries[userID]
	return snapshot, ok
}

// Refresh fetches and reconciles the wallet's holdings, then atomically
// replaces the user's entry. When two refreshes race, whichever completes
// last determines the cached value. A failure leaves any prior entry
// untouched.
func (c *OwnershipCache) Refresh(ctx context.Context, userID, address string) (Snapshot, error) {
	holdings, err := c.fetcher.WalletHoldings(ctx, address)
	if err != nil {
		return Snapshot{}, err
	}
	owned, err := domain.Reconcile(holdings)
	if err != nil {
		return Snapshot{}, err
	}
	snapshot := Snapshot{Owned: owned, CapturedAt: c.clock()}

	c.mu.Lock()
	c.entries[userID] = snapshot
	c.mu.Unlock()
	return snapshot, nil
}

// Serve applies the stale-while-revalidate read policy: a fresh entry is
// returned immediately while a detached refresh warms the cache for the next
// read; with no usable entry the caller pays for a synchronous refresh.
func (c *OwnershipCache) Serve(ctx context.Context, userID, address string) (Snapshot, error) {
	if snapshot, ok := c.Get(userID); ok && c.clock().Sub(snapshot.CapturedAt) < c.maxAge {
		c.runner.Go("ownership refresh", func(ctx context.Context) error {
			_, err := c.Refresh(ctx, userID, address)
			return err
		})
		return snapshot, nil
	}
	return c.Refresh(ctx, userID, address)
}
