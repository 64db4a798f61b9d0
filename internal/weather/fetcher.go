package weather

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/poi"
)

// DefaultUpstreamTimeout bounds a single provider call so the request-level
// join point is always reached.
const DefaultUpstreamTimeout = 5 * time.Second

// Fetcher obtains a current-conditions snapshot for a POI. The cache and the
// rate budget sit behind this one gate, so callers cannot race the
// check-then-increment or bypass the stale-fallback policy.
type Fetcher struct {
	cache    *Cache
	budget   *RateBudget
	provider Provider
	timeout  time.Duration

	group singleflight.Group
}

// NewFetcher creates a Fetcher. A non-positive timeout falls back to the
// default per-call bound.
func NewFetcher(cache *Cache, budget *RateBudget, provider Provider, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultUpstreamTimeout
	}
	return &Fetcher{
		cache:    cache,
		budget:   budget,
		provider: provider,
		timeout:  timeout,
	}
}

// Fetch returns a snapshot for the POI, preferring in order: live cache hit,
// fresh upstream call, stale cache fallback. Concurrent fetches for the same
// POI id are coalesced into a single upstream call; concurrent fetches for
// distinct ids proceed independently.
//
// Errors: ErrQuotaExceeded when the budget is spent and no usable stale data
// exists; ErrUpstreamUnavailable when the upstream call failed and no usable
// stale data exists. Both mean "omit this POI", never "fail the request".
func (f *Fetcher) Fetch(ctx context.Context, p poi.PointOfInterest) (Snapshot, error) {
	if s, ok := f.cache.Get(p.ID); ok {
		return s, nil
	}

	v, err, _ := f.group.Do(p.ID, func() (interface{}, error) {
		return f.fetchUncached(ctx, p)
	})
	if err != nil {
		return Snapshot{}, err
	}
	return v.(Snapshot), nil
}

func (f *Fetcher) fetchUncached(ctx context.Context, p poi.PointOfInterest) (Snapshot, error) {
	// Re-check under the flight: a coalesced loser may arrive after the
	// winner already populated the cache.
	if s, ok := f.cache.Get(p.ID); ok {
		return s, nil
	}

	if !f.budget.Reserve() {
		if s, ok := f.cache.GetStale(p.ID); ok {
			log.Printf("INFO: weather budget exhausted; serving stale snapshot for %s", p.ID)
			return s, nil
		}
		return Snapshot{}, fmt.Errorf("poi %s: %w", p.ID, ErrQuotaExceeded)
	}

	callCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	reading, err := f.provider.Current(callCtx, p.Coordinate)
	if err != nil {
		if s, ok := f.cache.GetStale(p.ID); ok {
			log.Printf("WARN: provider %s failed for %s (%v); serving stale snapshot", f.provider.Name(), p.ID, err)
			return s, nil
		}
		return Snapshot{}, fmt.Errorf("poi %s: %w: %v", p.ID, ErrUpstreamUnavailable, err)
	}

	observed := reading.ObservedAt
	if observed.IsZero() {
		observed = time.Now().UTC()
	}

	s := Snapshot{
		POIID:        p.ID,
		TemperatureC: reading.TemperatureC,
		Condition:    reading.Condition,
		PrecipChance: reading.PrecipChance,
		WindSpeedMS:  reading.WindSpeedMS,
		ObservedAt:   observed,
		Source:       SourceLive,
	}
	f.cache.Put(p.ID, s)
	return s, nil
}
