package weather

import (
	"context"
	"errors"
	"time"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
	ConditionMist    Condition = "mist"
)

// Source tells the caller whether a snapshot came from a live upstream call
// or from degraded-mode stale cache data.
type Source string

const (
	SourceLive  Source = "live"
	SourceStale Source = "stale"
)

var (
	// ErrQuotaExceeded: the daily upstream budget is exhausted and no
	// usable stale snapshot exists for the key.
	ErrQuotaExceeded = errors.New("daily weather call budget exhausted")

	// ErrUpstreamUnavailable: the upstream call failed and no usable
	// stale snapshot exists for the key.
	ErrUpstreamUnavailable = errors.New("upstream weather provider unavailable")
)

// Snapshot is the current-conditions view for a single POI.
type Snapshot struct {
	POIID        string    `json:"poiId"`
	TemperatureC float64   `json:"temperatureC"`
	Condition    Condition `json:"condition"`
	PrecipChance float64   `json:"precipChancePct"`
	WindSpeedMS  float64   `json:"windSpeedMs"`
	ObservedAt   time.Time `json:"observedAt"`
	Source       Source    `json:"source"`
}

// Reading is a provider's raw normalized answer for a coordinate, before it
// is keyed to a POI and cached.
type Reading struct {
	TemperatureC float64
	Condition    Condition
	PrecipChance float64
	WindSpeedMS  float64
	ObservedAt   time.Time
}

// Provider abstracts the upstream current-conditions source. The provider
// enforces its own quota independently; the engine's RateBudget is a
// client-side guard in front of it.
type Provider interface {
	Name() string
	Current(ctx context.Context, c geo.Coordinate) (Reading, error)
}
