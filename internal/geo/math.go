// Package geo handles geographic data structures and coordinate conversions.
package geo

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// MaxLat is the latitude limit of the web mercator projection.
const MaxLat = 85.05112878

// Expand grows a bound by d degrees in every direction.
func Expand(b orb.Bound, d float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.Min[0] - d, b.Min[1] - d},
		Max: orb.Point{b.Max[0] + d, b.Max[1] + d},
	}
}

// UTMZoneEPSG estimates the EPSG code of the UTM zone covering the
// geometry, picked from its centroid. Northern hemisphere zones map to
// 326xx, southern to 327xx.
func UTMZoneEPSG(g orb.Geometry) int {
	centroid, _ := planar.CentroidArea(g)

	zone := int(math.Floor((centroid[0]+180.0)/6.0)) + 1
	if zone < 1 {
		zone = 1
	} else if zone > 60 {
		zone = 60
	}

	if centroid[1] < 0 {
		return 32700 + zone
	}
	return 32600 + zone
}

// TileFraction converts WGS84 Lon/Lat to fractional XYZ tile coordinates
// at the given zoom (slippy-map web mercator scheme). Whole parts index
// the tile, fractional parts the position inside it.
func TileFraction(lon, lat float64, zoom int) (x, y float64) {
	if lat > MaxLat {
		lat = MaxLat
	} else if lat < -MaxLat {
		lat = -MaxLat
	}

	n := float64(int(1) << zoom)
	x = (lon + 180.0) / 360.0 * n

	latRad := lat * (math.Pi / 180.0)
	y = (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0 * n

	return x, y
}
