package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/discovery"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/location"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/poi"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/store"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/travel"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/weather"
)

type okProvider struct{}

func (okProvider) Name() string { return "ok" }

func (okProvider) Current(ctx context.Context, c geo.Coordinate) (weather.Reading, error) {
	return weather.Reading{
		TemperatureC: 21,
		Condition:    weather.ConditionClear,
		ObservedAt:   time.Now().UTC(),
	}, nil
}

func newTestApp(t *testing.T) (*fiber.App, *store.MemoryStore) {
	t.Helper()

	memStore := store.NewMemoryStore()
	model, err := travel.NewSpeedModel(80)
	if err != nil {
		t.Fatalf("speed model: %v", err)
	}

	cache := weather.NewCache(30*time.Minute, 3, 100)
	budget := weather.NewRateBudget(100)
	fallback := geo.Coordinate{Lat: 44.9778, Lon: -93.2650}

	orch := discovery.New(
		location.NewResolver(nil, 50*time.Millisecond, 5000, fallback),
		poi.NewIndex(memStore),
		travel.NewBucketer(model, 5),
		weather.NewFetcher(cache, budget, okProvider{}, time.Second),
		model,
		1.15,
	)

	app := fiber.New()
	RegisterRoutes(app, Deps{
		Orchestrator: orch,
		POIStore:     memStore,
		Budget:       budget,
		Cache:        cache,
	})
	return app, memStore
}

func TestDiscover_RejectsMissingBand(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/discover", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestDiscover_RejectsUnknownBand(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/discover?band=45min", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestDiscover_RejectsOutOfRangeCoordinate(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/discover?band=1h&lat=95&lon=-93", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestDiscover_RejectsLoneLatitude(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/discover?band=1h&lat=45", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestDiscover_HappyPath(t *testing.T) {
	app, memStore := newTestApp(t)
	memStore.Upsert(poi.PointOfInterest{ID: "near", Name: "Near Park",
		Category:   poi.CategoryPark,
		Coordinate: geo.Coordinate{Lat: 45.05, Lon: -93.2650}})

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/discover?band=1h&lat=44.9778&lon=-93.2650&accuracy=25", nil)
	resp, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var result discovery.Result
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.ResolvedVia != location.ViaGPS {
		t.Errorf("expected gps resolution, got %s", result.ResolvedVia)
	}
	if len(result.Items) != 1 || result.Items[0].POI.ID != "near" {
		t.Errorf("unexpected items: %+v", result.Items)
	}
}

func TestLocations_ListsStore(t *testing.T) {
	app, memStore := newTestApp(t)
	memStore.SeedMinnesota()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/locations", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload struct {
		Locations []poi.PointOfInterest `json:"locations"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Locations) != memStore.Count() {
		t.Errorf("expected %d locations, got %d", memStore.Count(), len(payload.Locations))
	}
}

func TestInfrastructure_ReportsStatus(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/infrastructure", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload["api"] != "running" {
		t.Errorf("expected api running, got %v", payload["api"])
	}
	if payload["database"] != "not configured" {
		t.Errorf("expected database not configured, got %v", payload["database"])
	}
}
