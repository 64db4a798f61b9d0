package travel

import (
	"sort"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/poi"
)

// DefaultMaxResults bounds the weather-fetch fan-out per request.
const DefaultMaxResults = 5

// Ranked pairs a POI with its exact distance from the query origin.
type Ranked struct {
	POI        poi.PointOfInterest
	DistanceKm float64
}

// Bucketer trims bounding-box candidates down to the requested travel band.
type Bucketer struct {
	model      SpeedModel
	maxResults int
}

// NewBucketer creates a Bucketer; maxResults <= 0 falls back to the default cap.
func NewBucketer(model SpeedModel, maxResults int) *Bucketer {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Bucketer{model: model, maxResults: maxResults}
}

// Bucket computes the exact distance for each candidate, keeps those within
// the band's threshold, and returns them sorted ascending by distance with
// POI id as the tiebreak. The result is capped at maxResults; fewer
// candidates than the cap are returned as-is.
func (b *Bucketer) Bucket(origin geo.Coordinate, candidates []poi.PointOfInterest, band Band) ([]Ranked, error) {
	maxKm, err := b.model.MaxDistanceKm(band)
	if err != nil {
		return nil, err
	}

	ranked := make([]Ranked, 0, len(candidates))
	for _, p := range candidates {
		d := geo.Distance(origin, p.Coordinate)
		if d <= maxKm {
			ranked = append(ranked, Ranked{POI: p, DistanceKm: d})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DistanceKm != ranked[j].DistanceKm {
			return ranked[i].DistanceKm < ranked[j].DistanceKm
		}
		return ranked[i].POI.ID < ranked[j].POI.ID
	})

	if len(ranked) > b.maxResults {
		ranked = ranked[:b.maxResults]
	}
	return ranked, nil
}
