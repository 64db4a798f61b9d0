package poi

import (
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
)

// Category is a coarse classification of an outdoor point of interest.
type Category string

const (
	CategoryPark      Category = "park"
	CategoryTrail     Category = "trail"
	CategoryLake      Category = "lake"
	CategoryForest    Category = "forest"
	CategoryCampsite  Category = "campsite"
	CategoryOverlook  Category = "overlook"
	CategoryUnknown   Category = "unknown"
)

// PointOfInterest is a named candidate location for weather lookup. The POI
// store owns creation and maintenance; this engine only reads. ID is unique
// and stable across requests and doubles as the weather cache key.
type PointOfInterest struct {
	ID         string         `json:"id"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Name       string         `json:"name"`
	Category   Category       `json:"category"`
	Amenities  []string       `json:"amenities,omitempty"`
}
