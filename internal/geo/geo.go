package geo

import (
	"fmt"
	"math"
	"sort"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the haversine formula.
	EarthRadiusKm = 6371.0088

	// Web-Mercator zoom ladder bounds and the reference viewport the
	// presentation layer renders into (256px tiles).
	minZoom          = 0
	maxZoom          = 18
	viewportWidthPx  = 1024.0
	viewportHeightPx = 768.0
	tileSizePx       = 256.0

	// DefaultCloseZoom is used when the point set degenerates to a single
	// location and no finite bounding box exists.
	DefaultCloseZoom = 13
)

// Coordinate is an immutable latitude/longitude pair in WGS84 degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate lies inside the WGS84 domain.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Validate returns a descriptive error for out-of-range coordinates.
func (c Coordinate) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("latitude %.6f out of range [-90,90]", c.Lat)
	}
	if c.Lon < -180 || c.Lon > 180 {
		return fmt.Errorf("longitude %.6f out of range [-180,180]", c.Lon)
	}
	return nil
}

// Bounds is a geographic bounding box. When the box spans the antimeridian,
// SW.Lon is numerically greater than NE.Lon and the box wraps through ±180.
type Bounds struct {
	SW Coordinate `json:"southwest"`
	NE Coordinate `json:"northeast"`
}

// Viewport pairs a bounding box with the discrete zoom level at which the
// box fits the reference viewport.
type Viewport struct {
	Bounds
	Zoom int `json:"zoom"`
}

// Distance returns the great-circle distance between a and b in kilometers.
// The haversine formulation stays numerically stable for nearly antipodal
// points, and identical inputs yield exactly zero.
func Distance(a, b Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)

	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	if h > 1 {
		h = 1
	}

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

// Bearing returns the initial bearing from a to b in degrees [0,360).
func Bearing(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	deg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(deg+360, 360)
}

// BoundingBox returns the rectangular box that encloses a circle of
// radiusKm around center. Longitude half-width grows with latitude; near
// the poles the box widens to the full longitude range.
func BoundingBox(center Coordinate, radiusKm float64) Bounds {
	latDelta := radiusKm / 111.045 // km per degree of latitude

	sw := Coordinate{Lat: center.Lat - latDelta, Lon: -180}
	ne := Coordinate{Lat: center.Lat + latDelta, Lon: 180}
	if sw.Lat < -90 {
		sw.Lat = -90
	}
	if ne.Lat > 90 {
		ne.Lat = 90
	}

	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if cosLat > 1e-6 {
		lonDelta := radiusKm / (111.045 * cosLat)
		if lonDelta < 180 {
			sw.Lon = normalizeLon(center.Lon - lonDelta)
			ne.Lon = normalizeLon(center.Lon + lonDelta)
		}
	}
	return Bounds{SW: sw, NE: ne}
}

// Contains reports whether c lies inside the box, honoring antimeridian
// wrap when SW.Lon > NE.Lon.
func (b Bounds) Contains(c Coordinate) bool {
	if c.Lat < b.SW.Lat || c.Lat > b.NE.Lat {
		return false
	}
	if b.SW.Lon <= b.NE.Lon {
		return c.Lon >= b.SW.Lon && c.Lon <= b.NE.Lon
	}
	return c.Lon >= b.SW.Lon || c.Lon <= b.NE.Lon
}

// FitBounds computes the minimal bounding box covering points, expands it by
// the padding factor (>= 1.0), and picks the smallest zoom level on the
// ladder at which the padded box fits the reference viewport.
//
// A single point, or a set of identical points, yields a zero-span box at
// DefaultCloseZoom. Point sets straddling the antimeridian take the shorter
// longitudinal span rather than an inverted box covering most of the globe.
func FitBounds(points []Coordinate, padding float64) Viewport {
	if len(points) == 0 {
		return Viewport{Zoom: DefaultCloseZoom}
	}
	if padding < 1.0 {
		padding = 1.0
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	for _, p := range points[1:] {
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
	}

	west, east, lonSpan := minimalLonArc(points)

	latSpan := maxLat - minLat
	if latSpan < 1e-9 && lonSpan < 1e-9 {
		c := Coordinate{Lat: minLat, Lon: west}
		return Viewport{Bounds: Bounds{SW: c, NE: c}, Zoom: DefaultCloseZoom}
	}

	// Expand around the box center by the padding factor. With no padding
	// the exact extremes are kept; re-deriving them from center and span
	// could nudge a boundary point outside the box.
	if padding > 1.0 {
		latCenter := (minLat + maxLat) / 2
		latSpan *= padding
		lonSpan *= padding
		if lonSpan > 360 {
			lonSpan = 360
		}

		minLat = math.Max(latCenter-latSpan/2, -90)
		maxLat = math.Min(latCenter+latSpan/2, 90)

		lonCenter := normalizeLon(west + (east-west+wrapAdjust(west, east))/2)
		west = normalizeLon(lonCenter - lonSpan/2)
		east = normalizeLon(lonCenter + lonSpan/2)
	}

	return Viewport{
		Bounds: Bounds{
			SW: Coordinate{Lat: minLat, Lon: west},
			NE: Coordinate{Lat: maxLat, Lon: east},
		},
		Zoom: zoomFor(minLat, maxLat, lonSpan),
	}
}

// minimalLonArc finds the shortest longitudinal arc covering all points by
// locating the largest angular gap between consecutive longitudes; the
// complement of that gap is the minimal covering arc.
func minimalLonArc(points []Coordinate) (west, east, span float64) {
	lons := make([]float64, 0, len(points))
	for _, p := range points {
		lons = append(lons, normalizeLon(p.Lon))
	}
	if len(lons) == 1 {
		return lons[0], lons[0], 0
	}

	sorted := append([]float64(nil), lons...)
	sort.Float64s(sorted)

	if sorted[0] == sorted[len(sorted)-1] {
		return sorted[0], sorted[0], 0
	}

	// gapIdx 0 means the largest gap runs through the antimeridian. The arc
	// endpoints are always taken from the input longitudes themselves;
	// rebuilding them from gap arithmetic loses the last float bits.
	gapIdx := 0
	maxGap := sorted[0] + 360 - sorted[len(sorted)-1]
	for i := 1; i < len(sorted); i++ {
		if gap := sorted[i] - sorted[i-1]; gap > maxGap {
			maxGap = gap
			gapIdx = i
		}
	}

	if gapIdx == 0 {
		west, east = sorted[0], sorted[len(sorted)-1]
	} else {
		west, east = sorted[gapIdx], sorted[gapIdx-1]
	}
	span = 360 - maxGap
	if span < 0 {
		span = 0
	}
	return west, east, span
}

// zoomFor derives the smallest zoom whose Web-Mercator projection of the
// lat/lon spans fits inside the reference viewport.
func zoomFor(minLat, maxLat, lonSpan float64) int {
	latFraction := (mercatorY(maxLat) - mercatorY(minLat)) / math.Pi
	lonFraction := lonSpan / 360

	zoom := maxZoom
	if latFraction > 0 {
		z := int(math.Floor(math.Log2(viewportHeightPx / tileSizePx / latFraction)))
		if z < zoom {
			zoom = z
		}
	}
	if lonFraction > 0 {
		z := int(math.Floor(math.Log2(viewportWidthPx / tileSizePx / lonFraction)))
		if z < zoom {
			zoom = z
		}
	}
	if zoom < minZoom {
		zoom = minZoom
	}
	if zoom > maxZoom {
		zoom = maxZoom
	}
	return zoom
}

func mercatorY(lat float64) float64 {
	// Clamp to the Web-Mercator usable range.
	if lat > 85.05112878 {
		lat = 85.05112878
	}
	if lat < -85.05112878 {
		lat = -85.05112878
	}
	sin := math.Sin(lat * math.Pi / 180)
	y := math.Log((1+sin)/(1-sin)) / 2
	if y > math.Pi {
		y = math.Pi
	}
	if y < -math.Pi {
		y = -math.Pi
	}
	return y
}

func normalizeLon(lon float64) float64 {
	for lon > 180 {
		lon -= 360
	}
	for lon < -180 {
		lon += 360
	}
	return lon
}

func wrapAdjust(west, east float64) float64 {
	if east < west {
		return 360
	}
	return 0
}
