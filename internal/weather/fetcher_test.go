package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/poi"
)

type fakeProvider struct {
	calls int64
	err   error
	delay time.Duration
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Current(ctx context.Context, c geo.Coordinate) (Reading, error) {
	atomic.AddInt64(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Reading{}, ctx.Err()
		}
	}
	if f.err != nil {
		return Reading{}, f.err
	}
	return Reading{
		TemperatureC: 20,
		Condition:    ConditionClear,
		ObservedAt:   time.Now().UTC(),
	}, nil
}

func (f *fakeProvider) callCount() int64 {
	return atomic.LoadInt64(&f.calls)
}

func testFetchPOI(id string) poi.PointOfInterest {
	return poi.PointOfInterest{ID: id, Name: id, Coordinate: geo.Coordinate{Lat: 45, Lon: -93}}
}

func TestFetcher_LiveCacheHitSkipsUpstreamAndBudget(t *testing.T) {
	cache := NewCache(30*time.Minute, 3, 100)
	budget := NewRateBudget(10)
	prov := &fakeProvider{}
	f := NewFetcher(cache, budget, prov, time.Second)

	p := testFetchPOI("poi-1")
	if _, err := f.Fetch(context.Background(), p); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := f.Fetch(context.Background(), p); err != nil {
		t.Fatalf("second fetch: %v", err)
	}

	if prov.callCount() != 1 {
		t.Errorf("expected 1 upstream call, got %d", prov.callCount())
	}
	if budget.Used() != 1 {
		t.Errorf("cache hit must not consume budget; used=%d", budget.Used())
	}
}

func TestFetcher_QuotaExhaustedWithStaleFallback(t *testing.T) {
	cache := NewCache(30*time.Minute, 3, 100)
	budget := NewRateBudget(0)
	prov := &fakeProvider{}
	f := NewFetcher(cache, budget, prov, time.Second)

	// Seed an expired-but-usable entry by manipulating the cache clock.
	now := time.Now().UTC()
	cache.now = func() time.Time { return now }
	cache.Put("poi-1", testSnapshot("poi-1", now))
	now = now.Add(45 * time.Minute)

	got, err := f.Fetch(context.Background(), testFetchPOI("poi-1"))
	if err != nil {
		t.Fatalf("expected stale fallback, got %v", err)
	}
	if got.Source != SourceStale {
		t.Errorf("expected stale snapshot, got source %s", got.Source)
	}
	if prov.callCount() != 0 {
		t.Errorf("no upstream call should occur with an exhausted budget; got %d", prov.callCount())
	}
}

func TestFetcher_QuotaExhaustedNoStale(t *testing.T) {
	cache := NewCache(30*time.Minute, 3, 100)
	budget := NewRateBudget(0)
	f := NewFetcher(cache, budget, &fakeProvider{}, time.Second)

	_, err := f.Fetch(context.Background(), testFetchPOI("poi-1"))
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestFetcher_UpstreamFailureWithStaleFallback(t *testing.T) {
	cache := NewCache(30*time.Minute, 3, 100)
	budget := NewRateBudget(10)
	prov := &fakeProvider{err: errors.New("boom")}
	f := NewFetcher(cache, budget, prov, time.Second)

	now := time.Now().UTC()
	cache.now = func() time.Time { return now }
	cache.Put("poi-1", testSnapshot("poi-1", now))
	now = now.Add(45 * time.Minute)

	got, err := f.Fetch(context.Background(), testFetchPOI("poi-1"))
	if err != nil {
		t.Fatalf("expected stale fallback, got %v", err)
	}
	if got.Source != SourceStale {
		t.Errorf("expected stale snapshot, got source %s", got.Source)
	}
}

func TestFetcher_UpstreamFailureNoStale(t *testing.T) {
	cache := NewCache(30*time.Minute, 3, 100)
	budget := NewRateBudget(10)
	f := NewFetcher(cache, budget, &fakeProvider{err: errors.New("boom")}, time.Second)

	_, err := f.Fetch(context.Background(), testFetchPOI("poi-1"))
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

func TestFetcher_BudgetNeverOvershootsUnderConcurrency(t *testing.T) {
	const limit = 5
	cache := NewCache(30*time.Minute, 3, 100)
	budget := NewRateBudget(limit)
	prov := &fakeProvider{}
	f := NewFetcher(cache, budget, prov, time.Second)

	var wg sync.WaitGroup
	var quotaErrs int64
	for i := 0; i < limit+1; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.Fetch(context.Background(), testFetchPOI(fmt.Sprintf("poi-%d", i)))
			if errors.Is(err, ErrQuotaExceeded) {
				atomic.AddInt64(&quotaErrs, 1)
			}
		}(i)
	}
	wg.Wait()

	if prov.callCount() != limit {
		t.Errorf("expected exactly %d upstream calls, got %d", limit, prov.callCount())
	}
	if quotaErrs < 1 {
		t.Error("expected at least one QuotaExceeded outcome")
	}
	if budget.Used() > limit {
		t.Errorf("callsUsed %d exceeds limit %d", budget.Used(), limit)
	}
}

func TestFetcher_CoalescesSameKey(t *testing.T) {
	cache := NewCache(30*time.Minute, 3, 100)
	budget := NewRateBudget(100)
	prov := &fakeProvider{delay: 50 * time.Millisecond}
	f := NewFetcher(cache, budget, prov, time.Second)

	const concurrent = 10
	var wg sync.WaitGroup
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.Fetch(context.Background(), testFetchPOI("popular")); err != nil {
				t.Errorf("unexpected fetch error: %v", err)
			}
		}()
	}
	wg.Wait()

	if prov.callCount() != 1 {
		t.Errorf("expected a single coalesced upstream call, got %d", prov.callCount())
	}
	if budget.Used() != 1 {
		t.Errorf("coalesced fetches must consume one budget slot, used=%d", budget.Used())
	}
}

func TestFetcher_RespectsCallTimeout(t *testing.T) {
	cache := NewCache(30*time.Minute, 3, 100)
	budget := NewRateBudget(10)
	prov := &fakeProvider{delay: 500 * time.Millisecond}
	f := NewFetcher(cache, budget, prov, 20*time.Millisecond)

	start := time.Now()
	_, err := f.Fetch(context.Background(), testFetchPOI("slow"))
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable on timeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 300*time.Millisecond {
		t.Errorf("fetch did not respect the per-call timeout: %v", elapsed)
	}
}
