package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/weather"
)

func TestOpenMeteo_ParsesCurrentWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("current_weather") != "true" {
			t.Errorf("expected current_weather=true, got %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"current_weather": {
				"temperature": 18.4,
				"windspeed": 14.4,
				"time": "2026-06-01T12:00",
				"weathercode": 61
			},
			"hourly": {
				"precipitation_probability": [40]
			}
		}`))
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client())
	p.baseURL = srv.URL

	got, err := p.Current(context.Background(), geo.Coordinate{Lat: 44.97, Lon: -93.26})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.TemperatureC != 18.4 {
		t.Errorf("temperature: got %f", got.TemperatureC)
	}
	if got.Condition != weather.ConditionRain {
		t.Errorf("expected rain for code 61, got %s", got.Condition)
	}
	if got.PrecipChance != 40 {
		t.Errorf("precip chance: got %f", got.PrecipChance)
	}
	// Wind arrives in km/h and is normalized to m/s.
	if got.WindSpeedMS < 3.9 || got.WindSpeedMS > 4.1 {
		t.Errorf("wind: got %f m/s", got.WindSpeedMS)
	}
	want := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	if !got.ObservedAt.Equal(want) {
		t.Errorf("observedAt: got %v, want %v", got.ObservedAt, want)
	}
}

func TestOpenMeteo_ServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client())
	p.baseURL = srv.URL
	// Keep the test fast; the default backoff retries with growing delays.
	p.httpCfg.Backoff = BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}

	if _, err := p.Current(context.Background(), geo.Coordinate{Lat: 44.97, Lon: -93.26}); err == nil {
		t.Error("expected error for 500 response")
	}
}
