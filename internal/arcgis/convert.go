package arcgis

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ObjectIDField is the numeric identifier always requested from a layer.
const ObjectIDField = "OBJECTID"

// ToFeatureCollection converts a layer query response to GeoJSON. Ring
// coordinates are taken verbatim, with no winding-order correction.
// Records without rings are dropped. Missing attributes fall back to
// "Unknown" for the name and 0 for the id; the url property is only set
// when a url field was selected.
func ToFeatureCollection(resp *QueryResponse, nameField, urlField string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, rec := range resp.Features {
		if len(rec.Geometry.Rings) == 0 {
			continue
		}

		polygon := make(orb.Polygon, 0, len(rec.Geometry.Rings))
		for _, ring := range rec.Geometry.Rings {
			r := make(orb.Ring, 0, len(ring))
			for _, pt := range ring {
				if len(pt) < 2 {
					continue
				}
				r = append(r, orb.Point{pt[0], pt[1]})
			}
			polygon = append(polygon, r)
		}

		feature := geojson.NewFeature(polygon)
		feature.Properties["name"] = stringAttr(rec.Attributes, nameField, "Unknown")
		feature.Properties["id"] = intAttr(rec.Attributes, ObjectIDField, 0)
		if urlField != "" {
			feature.Properties["url"] = stringAttr(rec.Attributes, urlField, "")
		}

		fc.Append(feature)
	}

	return fc
}

func stringAttr(attrs map[string]interface{}, key, fallback string) string {
	if v, ok := attrs[key].(string); ok {
		return v
	}
	return fallback
}

func intAttr(attrs map[string]interface{}, key string, fallback int) int {
	// JSON numbers decode as float64
	if v, ok := attrs[key].(float64); ok {
		return int(v)
	}
	return fallback
}
