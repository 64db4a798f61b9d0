package httpapi

import (
	"context"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/discovery"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/location"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/poi"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/travel"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/weather"
)

var validate = validator.New()

// requestDeadline caps a whole discovery request; individual upstream calls
// carry shorter timeouts inside the fetcher.
const requestDeadline = 15 * time.Second

// Pinger reports backing-database reachability for the infrastructure
// endpoint. Nil when running on the in-memory store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps bundles what the HTTP layer needs.
type Deps struct {
	Orchestrator *discovery.Orchestrator
	POIStore     poi.Store
	Budget       *weather.RateBudget
	Cache        *weather.Cache
	DB           Pinger
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	v1 := app.Group("/api/v1")

	v1.Get("/discover", func(c *fiber.Ctx) error {
		req, err := parseDiscoverQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), requestDeadline)
		defer cancel()

		result, err := deps.Orchestrator.Discover(ctx, req)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "discovery failed")
		}
		return c.JSON(result)
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		pois, err := deps.POIStore.All(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list locations")
		}
		return c.JSON(fiber.Map{"locations": pois})
	})

	v1.Get("/bands", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"bands": travel.Bands()})
	})

	app.Get("/infrastructure", func(c *fiber.Ctx) error {
		status := fiber.Map{
			"api":             "running",
			"database":        "not configured",
			"budgetUsed":      deps.Budget.Used(),
			"budgetRemaining": deps.Budget.Remaining(),
			"cacheEntries":    deps.Cache.Len(),
			"timestamp":       time.Now().UTC(),
		}
		if deps.DB != nil {
			if err := deps.DB.Ping(c.UserContext()); err != nil {
				status["database"] = "error: " + err.Error()
			} else {
				status["database"] = "connected"
			}
		}
		return c.JSON(status)
	})
}

// discoverQuery holds validated query parameters for the discover endpoint.
type discoverQuery struct {
	Band      string   `validate:"required"`
	Lat       *float64 `validate:"omitempty,gte=-90,lte=90"`
	Lon       *float64 `validate:"omitempty,gte=-180,lte=180"`
	AccuracyM float64  `validate:"gte=0"`
}

// parseDiscoverQuery rejects malformed input before any I/O happens. A bad
// band or an out-of-range coordinate is the only whole-request failure.
func parseDiscoverQuery(c *fiber.Ctx) (discovery.Request, error) {
	var q discoverQuery
	q.Band = c.Query("band")

	var err error
	if q.Lat, err = parseOptionalFloat(c.Query("lat")); err != nil {
		return discovery.Request{}, err
	}
	if q.Lon, err = parseOptionalFloat(c.Query("lon")); err != nil {
		return discovery.Request{}, err
	}
	if acc := c.Query("accuracy"); acc != "" {
		if q.AccuracyM, err = strconv.ParseFloat(acc, 64); err != nil {
			return discovery.Request{}, fiber.NewError(fiber.StatusBadRequest, "invalid accuracy")
		}
	}

	if err := validate.Struct(q); err != nil {
		return discovery.Request{}, err
	}
	if (q.Lat == nil) != (q.Lon == nil) {
		return discovery.Request{}, fiber.NewError(fiber.StatusBadRequest, "lat and lon must be supplied together")
	}

	band, err := travel.ParseBand(q.Band)
	if err != nil {
		return discovery.Request{}, err
	}

	req := discovery.Request{Band: band, ClientIP: c.IP()}
	if q.Lat != nil {
		req.GPS = &location.GPSReading{
			Coordinate: geo.Coordinate{Lat: *q.Lat, Lon: *q.Lon},
			AccuracyM:  q.AccuracyM,
		}
	}
	return req, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid coordinate value")
	}
	return &f, nil
}
