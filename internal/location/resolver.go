package location

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
)

// Via names the stage that produced the effective query origin.
type Via string

const (
	ViaGPS      Via = "gps"
	ViaIP       Via = "ip"
	ViaFallback Via = "fallback"
)

// DefaultIPTimeout bounds the IP geolocation stage.
const DefaultIPTimeout = 2500 * time.Millisecond

// DefaultMaxAccuracyM is the worst client-reported GPS accuracy still
// accepted as a usable origin.
const DefaultMaxAccuracyM = 5000.0

// GPSReading is the client-supplied coordinate with accuracy metadata.
// Absent is a valid value (nil pointer at the call site).
type GPSReading struct {
	Coordinate geo.Coordinate
	AccuracyM  float64
}

// IPLookup resolves an approximate coordinate for a requester IP. It may be
// slow or unavailable; the resolver bounds it with its own timeout.
type IPLookup interface {
	Locate(ctx context.Context, ip string) (geo.Coordinate, error)
}

// Resolution is the resolver's answer: the origin plus which stage won.
type Resolution struct {
	Origin geo.Coordinate
	Via    Via
}

// Resolver works through an ordered, timeout-bounded cascade: client GPS,
// then IP-based estimate, then a static regional fallback. Stages are linear
// and terminal; once one succeeds the rest are skipped, and only the
// fallback is guaranteed to succeed. Worst-case latency is the sum of the
// failed stages' timeouts.
type Resolver struct {
	ipLookup     IPLookup
	ipTimeout    time.Duration
	maxAccuracyM float64
	fallback     geo.Coordinate
}

// NewResolver creates a Resolver. ipLookup may be nil, in which case the IP
// stage is skipped. Non-positive timeout/accuracy fall back to defaults.
func NewResolver(ipLookup IPLookup, ipTimeout time.Duration, maxAccuracyM float64, fallback geo.Coordinate) *Resolver {
	if ipTimeout <= 0 {
		ipTimeout = DefaultIPTimeout
	}
	if maxAccuracyM <= 0 {
		maxAccuracyM = DefaultMaxAccuracyM
	}
	return &Resolver{
		ipLookup:     ipLookup,
		ipTimeout:    ipTimeout,
		maxAccuracyM: maxAccuracyM,
		fallback:     fallback,
	}
}

// attempt is one cascade stage: a name for observability, an optional
// per-stage timeout, and the stage function itself.
type attempt struct {
	via     Via
	timeout time.Duration
	run     func(ctx context.Context) (geo.Coordinate, error)
}

// Resolve walks the cascade and returns the first stage that succeeds. The
// final fallback stage cannot fail, so Resolve always returns a usable
// origin.
func (r *Resolver) Resolve(ctx context.Context, gps *GPSReading, clientIP string) Resolution {
	for _, a := range r.attempts(gps, clientIP) {
		stageCtx := ctx
		if a.timeout > 0 {
			var cancel context.CancelFunc
			stageCtx, cancel = context.WithTimeout(ctx, a.timeout)
			defer cancel()
		}

		origin, err := a.run(stageCtx)
		if err != nil {
			log.Printf("INFO: location stage %s failed: %v", a.via, err)
			continue
		}
		return Resolution{Origin: origin, Via: a.via}
	}

	// Unreachable: the fallback stage never errors.
	return Resolution{Origin: r.fallback, Via: ViaFallback}
}

func (r *Resolver) attempts(gps *GPSReading, clientIP string) []attempt {
	return []attempt{
		{
			via: ViaGPS,
			run: func(context.Context) (geo.Coordinate, error) {
				return r.fromGPS(gps)
			},
		},
		{
			via:     ViaIP,
			timeout: r.ipTimeout,
			run: func(ctx context.Context) (geo.Coordinate, error) {
				return r.fromIP(ctx, clientIP)
			},
		},
		{
			via: ViaFallback,
			run: func(context.Context) (geo.Coordinate, error) {
				return r.fallback, nil
			},
		},
	}
}

func (r *Resolver) fromGPS(gps *GPSReading) (geo.Coordinate, error) {
	if gps == nil {
		return geo.Coordinate{}, errors.New("no client coordinate supplied")
	}
	if err := gps.Coordinate.Validate(); err != nil {
		return geo.Coordinate{}, err
	}
	if gps.AccuracyM > r.maxAccuracyM {
		return geo.Coordinate{}, fmt.Errorf("accuracy %.0fm above threshold %.0fm", gps.AccuracyM, r.maxAccuracyM)
	}
	return gps.Coordinate, nil
}

func (r *Resolver) fromIP(ctx context.Context, clientIP string) (geo.Coordinate, error) {
	if r.ipLookup == nil {
		return geo.Coordinate{}, errors.New("ip lookup not configured")
	}
	if clientIP == "" {
		return geo.Coordinate{}, errors.New("requester ip unknown")
	}

	origin, err := r.ipLookup.Locate(ctx, clientIP)
	if err != nil {
		return geo.Coordinate{}, err
	}
	if err := origin.Validate(); err != nil {
		return geo.Coordinate{}, fmt.Errorf("ip provider returned bad coordinate: %w", err)
	}
	return origin, nil
}
