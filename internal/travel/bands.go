package travel

import (
	"fmt"
	"time"
)

// Band is a named travel-time category. Bands form a fixed ordered set;
// each maps to a maximum straight-line distance through the speed model.
type Band string

const (
	Band30Min Band = "30min"
	Band1H    Band = "1h"
	Band2H    Band = "2h"
	Band3H    Band = "3h"
	Band6H    Band = "6h"
	Band12H   Band = "12h"
)

// bandDurations is ordered strictly ascending; the distance thresholds
// derived from any positive speed inherit that ordering.
var bandDurations = []struct {
	band Band
	d    time.Duration
}{
	{Band30Min, 30 * time.Minute},
	{Band1H, 1 * time.Hour},
	{Band2H, 2 * time.Hour},
	{Band3H, 3 * time.Hour},
	{Band6H, 6 * time.Hour},
	{Band12H, 12 * time.Hour},
}

// Bands returns the full ordered band set.
func Bands() []Band {
	out := make([]Band, len(bandDurations))
	for i, bd := range bandDurations {
		out[i] = bd.band
	}
	return out
}

// ParseBand validates a band name from a request.
func ParseBand(s string) (Band, error) {
	for _, bd := range bandDurations {
		if string(bd.band) == s {
			return bd.band, nil
		}
	}
	return "", fmt.Errorf("unknown travel band %q", s)
}

// Duration returns the nominal travel time for the band.
func (b Band) Duration() (time.Duration, error) {
	for _, bd := range bandDurations {
		if bd.band == b {
			return bd.d, nil
		}
	}
	return 0, fmt.Errorf("unknown travel band %q", b)
}

// SpeedModel converts travel time to straight-line distance using a
// constant average speed. The original system never pinned down a road-aware
// estimate, so the speed is an explicit configuration input.
type SpeedModel struct {
	KmPerHour float64
}

// NewSpeedModel validates the configured speed.
func NewSpeedModel(kmPerHour float64) (SpeedModel, error) {
	if kmPerHour <= 0 {
		return SpeedModel{}, fmt.Errorf("speed must be positive, got %f km/h", kmPerHour)
	}
	return SpeedModel{KmPerHour: kmPerHour}, nil
}

// MaxDistanceKm returns the band's distance threshold under this model.
func (m SpeedModel) MaxDistanceKm(b Band) (float64, error) {
	d, err := b.Duration()
	if err != nil {
		return 0, err
	}
	return m.KmPerHour * d.Hours(), nil
}
