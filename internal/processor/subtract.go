package processor

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/openlands/preservemap/internal/geo"
	"github.com/openlands/preservemap/internal/geometry"
)

const geographicEPSG = 4326

// RoadSource supplies road centerlines intersecting a geographic bound.
type RoadSource interface {
	Roads(b orb.Bound) ([]orb.LineString, error)
}

// Result is the outcome of carving road corridors out of one preserve
// polygon. A degraded result keeps the original geometry and records why
// the subtraction was skipped, so callers can tell success from fallback
// without inspecting logs.
type Result struct {
	Geometry orb.Geometry
	Roads    int
	Degraded bool
	Reason   string
}

// Subtractor removes buffered road corridors from preserve polygons.
type Subtractor struct {
	Roads         RoadSource
	Geometry      geometry.Service
	BufferMeters  float64
	MarginDegrees float64
}

// Process subtracts buffered roads from a single polygon. It never
// fails: any error degrades to the unmodified input geometry and the
// batch can continue.
func (s *Subtractor) Process(g orb.Geometry) Result {
	out, roads, err := s.subtract(g)
	if err != nil {
		return Result{Geometry: g, Degraded: true, Reason: err.Error()}
	}
	return Result{Geometry: out, Roads: roads}
}

func (s *Subtractor) subtract(g orb.Geometry) (orb.Geometry, int, error) {
	// Expanded bound so roads clipped at the polygon edge are still caught.
	bound := geo.Expand(g.Bound(), s.MarginDegrees)

	lines, err := s.Roads.Roads(bound)
	if err != nil {
		return nil, 0, fmt.Errorf("road query: %w", err)
	}
	if len(lines) == 0 {
		return g, 0, nil
	}

	merged, err := s.Geometry.Merge(lines)
	if err != nil {
		return nil, 0, fmt.Errorf("merge roads: %w", err)
	}

	// Metric buffering needs a locally accurate projected system.
	epsg := geo.UTMZoneEPSG(g)

	polygon, err := s.Geometry.Reproject(g, geographicEPSG, epsg)
	if err != nil {
		return nil, 0, err
	}
	roads, err := s.Geometry.Reproject(merged, geographicEPSG, epsg)
	if err != nil {
		return nil, 0, err
	}

	polygon, err = s.Geometry.Repair(polygon)
	if err != nil {
		return nil, 0, fmt.Errorf("repair polygon: %w", err)
	}
	roads, err = s.Geometry.Repair(roads)
	if err != nil {
		return nil, 0, fmt.Errorf("repair roads: %w", err)
	}

	corridor, err := s.Geometry.Buffer(roads, s.BufferMeters)
	if err != nil {
		return nil, 0, fmt.Errorf("buffer roads: %w", err)
	}

	diff, err := s.Geometry.Difference(polygon, corridor)
	if err != nil {
		return nil, 0, fmt.Errorf("difference: %w", err)
	}

	diff, err = s.Geometry.Repair(diff)
	if err != nil {
		return nil, 0, fmt.Errorf("repair result: %w", err)
	}

	out, err := s.Geometry.Reproject(diff, epsg, geographicEPSG)
	if err != nil {
		return nil, 0, err
	}

	return out, len(lines), nil
}
