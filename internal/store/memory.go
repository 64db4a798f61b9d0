package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/poi"
)

var (
	// ErrNotFound is returned when no POI exists for a given id.
	ErrNotFound = errors.New("point of interest not found")
)

// MemoryStore is a concurrency-safe in-memory POI store. It has no spatial
// index, so bounding-box queries scan every entry; fine for the seeded demo
// set and for tests.
type MemoryStore struct {
	mu   sync.RWMutex
	pois map[string]poi.PointOfInterest
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pois: make(map[string]poi.PointOfInterest),
	}
}

// Upsert inserts or replaces a POI by id.
func (s *MemoryStore) Upsert(p poi.PointOfInterest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pois[p.ID] = p
}

// GetByID returns the POI with the given id.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (poi.PointOfInterest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.pois[id]
	if !ok {
		return poi.PointOfInterest{}, ErrNotFound
	}
	return p, nil
}

// WithinBounds returns all POIs inside the bounding box. Full scan with a
// client-side box test; ordering is unspecified.
func (s *MemoryStore) WithinBounds(ctx context.Context, bounds geo.Bounds) ([]poi.PointOfInterest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []poi.PointOfInterest
	for _, p := range s.pois {
		if bounds.Contains(p.Coordinate) {
			result = append(result, p)
		}
	}
	return result, nil
}

// All returns every POI, sorted by name for stable listings.
func (s *MemoryStore) All(ctx context.Context) ([]poi.PointOfInterest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]poi.PointOfInterest, 0, len(s.pois))
	for _, p := range s.pois {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// Count returns the number of stored POIs.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pois)
}

// SeedMinnesota loads the demo POI set used when no database is configured.
func (s *MemoryStore) SeedMinnesota() {
	for _, p := range []poi.PointOfInterest{
		{ID: "mn-minnehaha-falls", Name: "Minnehaha Falls", Category: poi.CategoryPark,
			Coordinate: geo.Coordinate{Lat: 44.9153, Lon: -93.2111},
			Amenities:  []string{"waterfall", "picnic", "paved-trail"}},
		{ID: "mn-afton-state-park", Name: "Afton State Park", Category: poi.CategoryPark,
			Coordinate: geo.Coordinate{Lat: 44.8536, Lon: -92.7935},
			Amenities:  []string{"hiking", "camping", "river"}},
		{ID: "mn-lake-maria", Name: "Lake Maria State Park", Category: poi.CategoryPark,
			Coordinate: geo.Coordinate{Lat: 45.3208, Lon: -93.9422},
			Amenities:  []string{"hiking", "lake", "backpacking"}},
		{ID: "mn-interstate-park", Name: "Interstate State Park", Category: poi.CategoryPark,
			Coordinate: geo.Coordinate{Lat: 45.3933, Lon: -92.6672},
			Amenities:  []string{"climbing", "river", "glacial-potholes"}},
		{ID: "mn-whitewater", Name: "Whitewater State Park", Category: poi.CategoryPark,
			Coordinate: geo.Coordinate{Lat: 44.0596, Lon: -92.0465},
			Amenities:  []string{"trout-fishing", "hiking", "bluffs"}},
		{ID: "mn-itasca", Name: "Itasca State Park", Category: poi.CategoryForest,
			Coordinate: geo.Coordinate{Lat: 47.2419, Lon: -95.2061},
			Amenities:  []string{"headwaters", "old-growth", "camping"}},
		{ID: "mn-gooseberry-falls", Name: "Gooseberry Falls State Park", Category: poi.CategoryPark,
			Coordinate: geo.Coordinate{Lat: 47.1406, Lon: -91.4695},
			Amenities:  []string{"waterfall", "north-shore", "hiking"}},
		{ID: "mn-split-rock", Name: "Split Rock Lighthouse State Park", Category: poi.CategoryOverlook,
			Coordinate: geo.Coordinate{Lat: 47.2003, Lon: -91.3672},
			Amenities:  []string{"lighthouse", "lake-superior", "cart-in-camping"}},
		{ID: "mn-mille-lacs", Name: "Mille Lacs Kathio State Park", Category: poi.CategoryLake,
			Coordinate: geo.Coordinate{Lat: 46.1311, Lon: -93.7447},
			Amenities:  []string{"lake", "observation-tower", "hiking"}},
		{ID: "mn-superior-hiking", Name: "Superior Hiking Trail (Duluth)", Category: poi.CategoryTrail,
			Coordinate: geo.Coordinate{Lat: 46.7867, Lon: -92.1005},
			Amenities:  []string{"thru-hiking", "overlooks"}},
	} {
		s.Upsert(p)
	}
}
