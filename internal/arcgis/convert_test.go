package arcgis

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func TestToFeatureCollection(t *testing.T) {
	ring := [][]float64{
		{-122.1, 37.3},
		{-122.0, 37.3},
		{-122.0, 37.4},
		{-122.1, 37.4},
		{-122.1, 37.3},
	}

	resp := &QueryResponse{Features: []Record{
		{
			Attributes: map[string]interface{}{
				"PRESERVE": "Foothills",
				"OBJECTID": float64(7),
				"WEB_URL":  "https://example.com/foothills",
			},
			Geometry: RecordGeometry{Rings: [][][]float64{ring}},
		},
		{
			// No rings at all, must be dropped.
			Attributes: map[string]interface{}{"PRESERVE": "Tableless"},
		},
		{
			// Missing attributes fall back to defaults.
			Attributes: map[string]interface{}{},
			Geometry:   RecordGeometry{Rings: [][][]float64{ring}},
		},
	}}

	fc := ToFeatureCollection(resp, "PRESERVE", "WEB_URL")
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	require.Equal(t, "Foothills", first.Properties["name"])
	require.Equal(t, 7, first.Properties["id"])
	require.Equal(t, "https://example.com/foothills", first.Properties["url"])

	poly, ok := first.Geometry.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, poly, 1)
	require.Len(t, poly[0], 5)
	// Coordinates are carried over verbatim, no winding correction.
	require.Equal(t, orb.Point{-122.1, 37.3}, poly[0][0])
	require.Equal(t, orb.Point{-122.0, 37.4}, poly[0][2])

	second := fc.Features[1]
	require.Equal(t, "Unknown", second.Properties["name"])
	require.Equal(t, 0, second.Properties["id"])
	require.Equal(t, "", second.Properties["url"])
}

func TestToFeatureCollectionNoURLField(t *testing.T) {
	resp := &QueryResponse{Features: []Record{{
		Attributes: map[string]interface{}{"NAME": "Windy Hill"},
		Geometry: RecordGeometry{Rings: [][][]float64{{
			{0, 0}, {1, 0}, {1, 1}, {0, 0},
		}}},
	}}}

	fc := ToFeatureCollection(resp, "NAME", "")
	require.Len(t, fc.Features, 1)
	require.NotContains(t, fc.Features[0].Properties, "url")
}
