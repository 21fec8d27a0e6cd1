package cache

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type fakeUniverseFetcher struct {
	ids   []string
	err   error
	calls int
}

func (f *fakeUniverseFetcher) CollectionTokenIDs(ctx context.Context, collectionID string, pageCap int) ([]string, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.ids, nil
}

// fixedClock advances only when stepped.
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) time() time.Time { return c.now }

func (c *fixedClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestUniverseGetFreshHitSkipsFetch(t *testing.T) {
	fetcher := &fakeUniverseFetcher{ids: []string{"2", "1"}}
	clock := &fixedClock{now: time.Unix(1000, 0)}
	cacheUnderTest := NewUniverseCache(fetcher, 0)
	cacheUnderTest.clock = clock.time

	first, err := cacheUnderTest.Get(context.Background(), "9", 1800*time.Second, false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(first.IDs, []string{"1", "2"}) {
		t.Fatalf("expected sorted ids, got %v", first.IDs)
	}

	clock.advance(100 * time.Second)
	second, err := cacheUnderTest.Get(context.Background(), "9", 1800*time.Second, false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("fresh hit must not refetch, got %d calls", fetcher.calls)
	}
	if !second.CapturedAt.Equal(first.CapturedAt) {
		t.Fatalf("fresh hit must return the identical snapshot, %v vs %v", second.CapturedAt, first.CapturedAt)
	}
}

func TestUniverseGetRefetchesWhenStale(t *testing.T) {
	fetcher := &fakeUniverseFetcher{ids: []string{"1"}}
	clock := &fixedClock{now: time.Unix(1000, 0)}
	cacheUnderTest := NewUniverseCache(fetcher, 0)
	cacheUnderTest.clock = clock.time

	if _, err := cacheUnderTest.Get(context.Background(), "9", 1800*time.Second, false); err != nil {
		t.Fatalf("get: %v", err)
	}
	clock.advance(2000 * time.Second)
	if _, err := cacheUnderTest.Get(context.Background(), "9", 1800*time.Second, false); err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("stale entry must refetch, got %d calls", fetcher.calls)
	}
}

func TestUniverseGetForceBypassesFreshness(t *testing.T) {
	fetcher := &fakeUniverseFetcher{ids: []string{"1"}}
	cacheUnderTest := NewUniverseCache(fetcher, 0)

	if _, err := cacheUnderTest.Get(context.Background(), "9", time.Hour, false); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := cacheUnderTest.Get(context.Background(), "9", time.Hour, true); err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetcher.calls != 2 {
		t.Fatalf("force must refetch regardless of age, got %d calls", fetcher.calls)
	}
}

func TestUniverseGetErrorLeavesPriorEntry(t *testing.T) {
	fetcher := &fakeUniverseFetcher{ids: []string{"1"}}
	clock := &fixedClock{now: time.Unix(1000, 0)}
	cacheUnderTest := NewUniverseCache(fetcher, 0)
	cacheUnderTest.clock = clock.time

	good, err := cacheUnderTest.Get(context.Background(), "9", time.Hour, false)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	fetcher.err = errors.New("upstream down")
	if _, err := cacheUnderTest.Get(context.Background(), "9", time.Hour, true); err == nil {
		t.Fatal("expected fetch error to propagate")
	}

	fetcher.err = nil
	kept, err := cacheUnderTest.Get(context.Background(), "9", time.Hour, false)
	if err != nil {
		t.Fatalf("get after failure: %v", err)
	}
	if !kept.CapturedAt.Equal(good.CapturedAt) {
		t.Fatal("failed refresh must leave the prior entry untouched")
	}
}

func TestUniverseGetNormalizesCollectionKey(t *testing.T) {
	fetcher := &fakeUniverseFetcher{ids: []string{"1"}}
	cacheUnderTest := NewUniverseCache(fetcher, 0)

	if _, err := cacheUnderTest.Get(context.Background(), " 9 ", time.Hour, false); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, err := cacheUnderTest.Get(context.Background(), "9", time.Hour, false); err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("normalized keys must share one entry, got %d calls", fetcher.calls)
	}
}
