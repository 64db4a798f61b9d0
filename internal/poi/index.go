package poi

import (
	"context"
	"fmt"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
)

// Store is the read contract the POI store must satisfy. Implementations
// with a spatial index (PostGIS) evaluate the box server-side; the in-memory
// store filters a full scan, which is acceptable for small stores.
type Store interface {
	WithinBounds(ctx context.Context, bounds geo.Bounds) ([]PointOfInterest, error)
	All(ctx context.Context) ([]PointOfInterest, error)
}

// Index answers proximity queries against a Store. It derives a rectangular
// bounding box from the search radius (longitude width scaled by latitude)
// so the candidate set stays bounded on large stores; exact distances and
// ordering are the bucketer's job.
type Index struct {
	store Store
}

// NewIndex creates an Index over the given store.
func NewIndex(store Store) *Index {
	return &Index{store: store}
}

// Query returns candidate POIs whose coordinates fall inside the bounding
// box enclosing a circle of maxRadiusKm around origin. An empty candidate
// set is a valid result, not an error.
func (i *Index) Query(ctx context.Context, origin geo.Coordinate, maxRadiusKm float64) ([]PointOfInterest, error) {
	if maxRadiusKm <= 0 {
		return nil, fmt.Errorf("max radius must be positive, got %f", maxRadiusKm)
	}

	box := geo.BoundingBox(origin, maxRadiusKm)
	candidates, err := i.store.WithinBounds(ctx, box)
	if err != nil {
		return nil, fmt.Errorf("poi store query: %w", err)
	}
	return candidates, nil
}
