package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/geo"
	"github.com/PrairieAster-Ai/nearest-nice-weather-sub005/internal/poi"
)

// PostgresStore reads POIs from a PostGIS-backed locations table. The
// coordinate column carries a spatial index, so bounding-box queries are
// evaluated server-side with && on geometry.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and verifies the connection.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping reports database reachability, used by the infrastructure endpoint.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const poiColumns = `id, name, category, amenities,
	ST_Y(coordinates::geometry) AS latitude,
	ST_X(coordinates::geometry) AS longitude`

// WithinBounds returns POIs inside the bounding box. A box that wraps the
// antimeridian (SW.Lon > NE.Lon) is split into two envelopes.
func (s *PostgresStore) WithinBounds(ctx context.Context, bounds geo.Bounds) ([]poi.PointOfInterest, error) {
	query := fmt.Sprintf(`SELECT %s FROM weather.locations
		WHERE coordinates::geometry && ST_MakeEnvelope($1, $2, $3, $4, 4326)`, poiColumns)
	args := []any{bounds.SW.Lon, bounds.SW.Lat, bounds.NE.Lon, bounds.NE.Lat}

	if bounds.SW.Lon > bounds.NE.Lon {
		query = fmt.Sprintf(`SELECT %s FROM weather.locations
			WHERE coordinates::geometry && ST_MakeEnvelope($1, $2, 180, $3, 4326)
			   OR coordinates::geometry && ST_MakeEnvelope(-180, $2, $4, $3, 4326)`, poiColumns)
		args = []any{bounds.SW.Lon, bounds.SW.Lat, bounds.NE.Lat, bounds.NE.Lon}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var result []poi.PointOfInterest
	for rows.Next() {
		var p poi.PointOfInterest
		var category string
		if err := rows.Scan(&p.ID, &p.Name, &category, &p.Amenities,
			&p.Coordinate.Lat, &p.Coordinate.Lon); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		p.Category = poi.Category(category)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return result, nil
}

// All returns every POI ordered by name.
func (s *PostgresStore) All(ctx context.Context) ([]poi.PointOfInterest, error) {
	query := fmt.Sprintf(`SELECT %s FROM weather.locations ORDER BY name`, poiColumns)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var result []poi.PointOfInterest
	for rows.Next() {
		var p poi.PointOfInterest
		var category string
		if err := rows.Scan(&p.ID, &p.Name, &category, &p.Amenities,
			&p.Coordinate.Lat, &p.Coordinate.Lon); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		p.Category = poi.Category(category)
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locations: %w", err)
	}
	return result, nil
}
