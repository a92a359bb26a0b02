// Package overpass downloads road centerlines from an OpenStreetMap
// Overpass endpoint.
package overpass

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/paulmach/orb"
)

// DrivableClasses is the road classification allow-list used when carving
// road corridors out of preserve boundaries.
var DrivableClasses = []string{
	"motorway",
	"trunk",
	"primary",
	"secondary",
	"tertiary",
	"motorway_link",
	"trunk_link",
	"primary_link",
	"secondary_link",
	"tertiary_link",
	"residential",
	"unclassified",
}

// Client queries an Overpass API endpoint for road geometry.
type Client struct {
	HTTP      *http.Client
	Endpoint  string
	UserAgent string
	Classes   []string // defaults to DrivableClasses when empty
}

// Internal structures for JSON parsing
type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type     string `json:"type"`
	ID       int64  `json:"id"`
	Geometry []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"geometry"`
	Tags map[string]string `json:"tags"`
}

// Roads returns the drivable road centerlines inside the bound as line
// geometries. Only ways with at least two resolved points are kept; node
// and relation elements are ignored.
func (c *Client) Roads(b orb.Bound) ([]orb.LineString, error) {
	classes := c.Classes
	if len(classes) == 0 {
		classes = DrivableClasses
	}

	// Overpass bounding boxes are (south, west, north, east).
	query := fmt.Sprintf(
		`[out:json][timeout:60];way["highway"~"^(%s)$"](%f,%f,%f,%f);out geom;`,
		strings.Join(classes, "|"),
		b.Min[1], b.Min[0], b.Max[1], b.Max[0],
	)

	form := url.Values{}
	form.Set("data", query)

	req, err := http.NewRequest(http.MethodPost, c.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	var lines []orb.LineString
	for _, el := range body.Elements {
		if el.Type != "way" || len(el.Geometry) < 2 {
			continue
		}

		line := make(orb.LineString, 0, len(el.Geometry))
		for _, pt := range el.Geometry {
			line = append(line, orb.Point{pt.Lon, pt.Lat})
		}
		lines = append(lines, line)
	}

	return lines, nil
}
