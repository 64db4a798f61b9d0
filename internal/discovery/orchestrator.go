package discovery

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/location"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/poi"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/travel"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/weather"
)

// Request is one discovery query. GPS may be nil and ClientIP empty; the
// resolver's cascade handles both.
type Request struct {
	GPS      *location.GPSReading
	ClientIP string
	Band     travel.Band
}

// Item is one enriched result entry.
type Item struct {
	POI        poi.PointOfInterest `json:"poi"`
	DistanceKm float64             `json:"distanceKm"`
	Weather    weather.Snapshot    `json:"weather"`
}

// Result is the full discovery response. It is built fresh per request and
// never persisted.
type Result struct {
	RequestID   string         `json:"requestId"`
	Origin      geo.Coordinate `json:"origin"`
	ResolvedVia location.Via   `json:"resolvedVia"`
	Band        travel.Band    `json:"band"`
	Items       []Item         `json:"items"`
	Viewport    geo.Viewport   `json:"viewport"`
	Omitted     int            `json:"omitted"`
}

// Orchestrator composes resolver, index, bucketer, fetcher and viewport
// fitting into the single request/response cycle.
type Orchestrator struct {
	resolver *location.Resolver
	index    *poi.Index
	bucketer *travel.Bucketer
	fetcher  *weather.Fetcher
	model    travel.SpeedModel
	padding  float64
}

// New creates an Orchestrator; padding below 1.0 is clamped by the fitter.
func New(resolver *location.Resolver, index *poi.Index, bucketer *travel.Bucketer,
	fetcher *weather.Fetcher, model travel.SpeedModel, padding float64) *Orchestrator {
	return &Orchestrator{
		resolver: resolver,
		index:    index,
		bucketer: bucketer,
		fetcher:  fetcher,
		model:    model,
		padding:  padding,
	}
}

// Discover runs the pipeline: resolve origin, candidate query, band trim,
// concurrent weather enrichment, viewport fit. Per-POI weather failures are
// recovered by omission and counted; falling through to the static location
// fallback is metadata, not an error. The only error paths left here are an
// unknown band and a failing POI store.
func (o *Orchestrator) Discover(ctx context.Context, req Request) (*Result, error) {
	maxKm, err := o.model.MaxDistanceKm(req.Band)
	if err != nil {
		return nil, err
	}

	res := o.resolver.Resolve(ctx, req.GPS, req.ClientIP)

	candidates, err := o.index.Query(ctx, res.Origin, maxKm)
	if err != nil {
		return nil, fmt.Errorf("candidate query: %w", err)
	}

	ranked, err := o.bucketer.Bucket(res.Origin, candidates, req.Band)
	if err != nil {
		return nil, err
	}

	items, omitted := o.enrich(ctx, ranked)

	// Viewport covers the origin plus every POI that survived enrichment;
	// with no items it centers on the origin at the close-in default zoom.
	points := make([]geo.Coordinate, 0, len(items)+1)
	points = append(points, res.Origin)
	for _, it := range items {
		points = append(points, it.POI.Coordinate)
	}

	return &Result{
		RequestID:   uuid.New().String(),
		Origin:      res.Origin,
		ResolvedVia: res.Via,
		Band:        req.Band,
		Items:       items,
		Viewport:    geo.FitBounds(points, o.padding),
		Omitted:     omitted,
	}, nil
}

// enrich fans weather fetches out over the trimmed set and joins on all of
// them; per-call timeouts inside the fetcher guarantee the join terminates.
// The returned items keep the bucketer's distance ordering regardless of
// fetch completion order.
func (o *Orchestrator) enrich(ctx context.Context, ranked []travel.Ranked) ([]Item, int) {
	if len(ranked) == 0 {
		return []Item{}, 0
	}

	snapshots := make([]*weather.Snapshot, len(ranked))
	var wg sync.WaitGroup

	for i, r := range ranked {
		i, r := i, r
		wg.Add(1)
		go func() {
			defer wg.Done()

			s, err := o.fetcher.Fetch(ctx, r.POI)
			if err != nil {
				// QuotaExceeded / UpstreamUnavailable / deadline: omit.
				log.Printf("INFO: omitting %s from results: %v", r.POI.ID, err)
				return
			}
			snapshots[i] = &s
		}()
	}
	wg.Wait()

	items := make([]Item, 0, len(ranked))
	omitted := 0
	for i, r := range ranked {
		if snapshots[i] == nil {
			omitted++
			continue
		}
		items = append(items, Item{POI: r.POI, DistanceKm: r.DistanceKm, Weather: *snapshots[i]})
	}
	return items, omitted
}
