package geometry

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-geos"
	"github.com/twpayne/go-proj/v11"
)

// quadSegs is the quarter-circle segment count for buffer arcs.
const quadSegs = 8

// GEOS implements Service on top of libgeos, with PROJ handling the
// coordinate transformations. Not safe for concurrent use: cached PROJ
// transformations are single-threaded.
type GEOS struct {
	transforms map[[2]int]*proj.PJ
}

// NewGEOS returns a Service backed by libgeos and PROJ.
func NewGEOS() *GEOS {
	return &GEOS{transforms: make(map[[2]int]*proj.PJ)}
}

// Reproject transforms every coordinate of g from srcEPSG to dstEPSG.
func (s *GEOS) Reproject(g orb.Geometry, srcEPSG, dstEPSG int) (orb.Geometry, error) {
	pj, err := s.transformation(srcEPSG, dstEPSG)
	if err != nil {
		return nil, err
	}

	var failure error
	out := mapCoords(g, func(p orb.Point) orb.Point {
		coord, err := pj.Forward(coordOf(p, srcEPSG))
		if err != nil && failure == nil {
			failure = err
		}
		return pointOf(coord, dstEPSG)
	})
	if failure != nil {
		return nil, fmt.Errorf("reproject %d->%d: %w", srcEPSG, dstEPSG, failure)
	}

	return out, nil
}

// Merge combines line geometries into one unified geometry via unary
// union, dissolving shared segments.
func (s *GEOS) Merge(lines []orb.LineString) (orb.Geometry, error) {
	ml := make(orb.MultiLineString, 0, len(lines))
	ml = append(ml, lines...)

	g, err := toGeos(ml)
	if err != nil {
		return nil, err
	}
	defer g.Destroy()

	merged := g.UnaryUnion()
	defer merged.Destroy()

	return fromGeos(merged)
}

// Buffer expands a geometry outward by distance coordinate units.
func (s *GEOS) Buffer(g orb.Geometry, distance float64) (orb.Geometry, error) {
	geom, err := toGeos(g)
	if err != nil {
		return nil, err
	}
	defer geom.Destroy()

	buffered := geom.Buffer(distance, quadSegs)
	defer buffered.Destroy()

	return fromGeos(buffered)
}

// Difference returns a minus b.
func (s *GEOS) Difference(a, b orb.Geometry) (orb.Geometry, error) {
	ga, err := toGeos(a)
	if err != nil {
		return nil, err
	}
	defer ga.Destroy()

	gb, err := toGeos(b)
	if err != nil {
		return nil, err
	}
	defer gb.Destroy()

	diff := ga.Difference(gb)
	defer diff.Destroy()

	return fromGeos(diff)
}

// Repair fixes self-intersections. Valid geometries are returned as-is.
func (s *GEOS) Repair(g orb.Geometry) (orb.Geometry, error) {
	geom, err := toGeos(g)
	if err != nil {
		return nil, err
	}
	defer geom.Destroy()

	if geom.IsValid() {
		return g, nil
	}

	repaired := geom.MakeValidWithParams(geos.MakeValidLinework, geos.MakeValidDiscardCollapsed)
	defer repaired.Destroy()

	return fromGeos(repaired)
}

func (s *GEOS) transformation(src, dst int) (*proj.PJ, error) {
	key := [2]int{src, dst}
	if pj, ok := s.transforms[key]; ok {
		return pj, nil
	}

	pj, err := proj.NewCRSToCRS(
		fmt.Sprintf("EPSG:%d", src),
		fmt.Sprintf("EPSG:%d", dst),
		nil,
	)
	if err != nil {
		return nil, err
	}

	s.transforms[key] = pj
	return pj, nil
}

// Geographic reference systems carry latitude first in PROJ's
// authority-compliant axis order; projected systems are easting/northing.
func coordOf(p orb.Point, epsg int) proj.Coord {
	if epsg == 4326 {
		return proj.Coord{p[1], p[0], 0, 0}
	}
	return proj.Coord{p[0], p[1], 0, 0}
}

func pointOf(c proj.Coord, epsg int) orb.Point {
	if epsg == 4326 {
		return orb.Point{c[1], c[0]}
	}
	return orb.Point{c[0], c[1]}
}

func toGeos(g orb.Geometry) (*geos.Geom, error) {
	data, err := geojson.NewGeometry(g).MarshalJSON()
	if err != nil {
		return nil, err
	}
	return geos.NewGeomFromGeoJSON(string(data))
}

func fromGeos(g *geos.Geom) (orb.Geometry, error) {
	var gj geojson.Geometry
	if err := json.Unmarshal([]byte(g.ToGeoJSON(-1)), &gj); err != nil {
		return nil, err
	}
	return gj.Geometry(), nil
}

// mapCoords applies f to every coordinate, returning a geometry of the
// same shape.
func mapCoords(g orb.Geometry, f func(orb.Point) orb.Point) orb.Geometry {
	switch g := g.(type) {
	case orb.Point:
		return f(g)
	case orb.MultiPoint:
		out := make(orb.MultiPoint, len(g))
		for i, p := range g {
			out[i] = f(p)
		}
		return out
	case orb.LineString:
		out := make(orb.LineString, len(g))
		for i, p := range g {
			out[i] = f(p)
		}
		return out
	case orb.MultiLineString:
		out := make(orb.MultiLineString, len(g))
		for i, ls := range g {
			out[i] = mapCoords(ls, f).(orb.LineString)
		}
		return out
	case orb.Ring:
		out := make(orb.Ring, len(g))
		for i, p := range g {
			out[i] = f(p)
		}
		return out
	case orb.Polygon:
		out := make(orb.Polygon, len(g))
		for i, r := range g {
			out[i] = mapCoords(r, f).(orb.Ring)
		}
		return out
	case orb.MultiPolygon:
		out := make(orb.MultiPolygon, len(g))
		for i, p := range g {
			out[i] = mapCoords(p, f).(orb.Polygon)
		}
		return out
	case orb.Collection:
		out := make(orb.Collection, len(g))
		for i, c := range g {
			out[i] = mapCoords(c, f)
		}
		return out
	case orb.Bound:
		return orb.Bound{Min: f(g.Min), Max: f(g.Max)}
	}

	panic(fmt.Sprintf("geometry: unsupported type %T", g))
}
