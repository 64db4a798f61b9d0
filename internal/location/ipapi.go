package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
)

// IPAPIClient implements IPLookup against ip-api.com. No retries: the
// resolver's stage timeout is short and a miss just falls through to the
// static fallback, so a circuit breaker alone keeps a flapping provider
// from slowing every request.
type IPAPIClient struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewIPAPIClient creates a client using the shared HTTP client.
func NewIPAPIClient(client *http.Client) *IPAPIClient {
	return &IPAPIClient{
		baseURL: "http://ip-api.com/json",
		client:  client,
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "ip-api",
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

// Locate resolves an approximate coordinate for the given IP.
func (c *IPAPIClient) Locate(ctx context.Context, ip string) (geo.Coordinate, error) {
	result, err := c.circuit.Execute(func() (interface{}, error) {
		u := fmt.Sprintf("%s/%s?fields=status,message,lat,lon", c.baseURL, ip)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("ip-api status %d", resp.StatusCode)
		}

		var payload struct {
			Status  string  `json:"status"`
			Message string  `json:"message"`
			Lat     float64 `json:"lat"`
			Lon     float64 `json:"lon"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return nil, err
		}
		if payload.Status != "success" {
			return nil, fmt.Errorf("ip-api lookup failed: %s", payload.Message)
		}
		return geo.Coordinate{Lat: payload.Lat, Lon: payload.Lon}, nil
	})
	if err != nil {
		return geo.Coordinate{}, err
	}
	return result.(geo.Coordinate), nil
}
