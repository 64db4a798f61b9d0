package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
)

// AppConfig carries every recognized option for the discovery engine.
type AppConfig struct {
	Port string

	// DatabaseURL selects the PostGIS POI store when set; empty runs the
	// seeded in-memory store.
	DatabaseURL string

	// OpenWeatherAPIKey selects OpenWeatherMap as the upstream provider;
	// empty falls back to the keyless Open-Meteo provider.
	OpenWeatherAPIKey string

	// DailyCallLimit is the client-side budget of upstream weather calls
	// per UTC calendar day.
	DailyCallLimit int

	// CacheTTL is the nominal lifetime of a live weather snapshot.
	CacheTTL time.Duration

	// MaxStalenessMultiplier scales CacheTTL into the window during which
	// an expired snapshot may still serve as a degraded fallback.
	MaxStalenessMultiplier int

	// CacheMaxEntries bounds cache memory; LRU entries go first.
	CacheMaxEntries int

	// MaxResultCount caps POIs per response and thus weather fan-out.
	MaxResultCount int

	// SpeedKmPerHour converts travel-time bands to distance thresholds.
	SpeedKmPerHour float64

	// IPLookupTimeout bounds the IP geolocation stage of the resolver.
	IPLookupTimeout time.Duration

	// UpstreamTimeout bounds one upstream weather call.
	UpstreamTimeout time.Duration

	// GPSAccuracyMaxM is the worst accepted client GPS accuracy.
	GPSAccuracyMaxM float64

	// ViewportPadding expands the fitted bounding box (>= 1.0).
	ViewportPadding float64

	// Fallback is the static regional origin of last resort.
	Fallback geo.Coordinate

	// JanitorInterval controls the periodic cache sweep.
	JanitorInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{
		Port:              getenvDefault("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),

		DailyCallLimit:         getenvInt("DAILY_CALL_LIMIT", 1000),
		MaxStalenessMultiplier: getenvInt("MAX_STALENESS_MULTIPLIER", 3),
		CacheMaxEntries:        getenvInt("CACHE_MAX_ENTRIES", 2048),
		MaxResultCount:         getenvInt("MAX_RESULT_COUNT", 5),
		SpeedKmPerHour:         getenvFloat("SPEED_MODEL_KMH", 80),
		GPSAccuracyMaxM:        getenvFloat("GPS_ACCURACY_MAX_M", 5000),
		ViewportPadding:        getenvFloat("VIEWPORT_PADDING", 1.15),
		Fallback: geo.Coordinate{
			// Minneapolis: the regional centroid of the seeded POI set.
			Lat: getenvFloat("FALLBACK_LAT", 44.9778),
			Lon: getenvFloat("FALLBACK_LON", -93.2650),
		},
	}

	var err error
	if cfg.CacheTTL, err = getenvDuration("CACHE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.IPLookupTimeout, err = getenvDuration("IP_LOOKUP_TIMEOUT", 2500*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.UpstreamTimeout, err = getenvDuration("UPSTREAM_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.JanitorInterval, err = getenvDuration("JANITOR_INTERVAL", 10*time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.Fallback.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fallback coordinate: %w", err)
	}
	if cfg.DailyCallLimit < 0 {
		return nil, fmt.Errorf("DAILY_CALL_LIMIT must be non-negative, got %d", cfg.DailyCallLimit)
	}
	if cfg.SpeedKmPerHour <= 0 {
		return nil, fmt.Errorf("SPEED_MODEL_KMH must be positive, got %f", cfg.SpeedKmPerHour)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
