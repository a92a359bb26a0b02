// Package geometry isolates the planar geometry engine behind a narrow
// interface, keeping the boundary pipeline independent of the library
// that backs reprojection and boolean operations.
package geometry

import "github.com/paulmach/orb"

// Service is the set of geometry operations the subtraction pipeline
// needs. Distances are in the units of the geometry's coordinate system,
// so Buffer is only meaningful after reprojecting to a metric CRS.
type Service interface {
	// Reproject transforms coordinates between EPSG reference systems.
	Reproject(g orb.Geometry, srcEPSG, dstEPSG int) (orb.Geometry, error)

	// Merge unifies line geometries into one combined geometry.
	Merge(lines []orb.LineString) (orb.Geometry, error)

	// Buffer expands a geometry outward by a distance.
	Buffer(g orb.Geometry, distance float64) (orb.Geometry, error)

	// Difference returns a minus b. An empty result is a valid outcome.
	Difference(a, b orb.Geometry) (orb.Geometry, error)

	// Repair fixes self-intersections; valid geometries pass through
	// unchanged.
	Repair(g orb.Geometry) (orb.Geometry, error)
}
