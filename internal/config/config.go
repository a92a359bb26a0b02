// Package config handles configuration loading and shared data structures.
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the root configuration file structure.
type Config struct {
	Catalog   Catalog `yaml:"catalog"`
	Roads     Roads   `yaml:"roads"`
	Basemap   Basemap `yaml:"basemap"`
	UserAgent string  `yaml:"user_agent,omitempty"`
}

// Catalog describes the feature-service catalog search that resolves the
// preserve boundary layer.
type Catalog struct {
	SearchURL   string   `yaml:"search_url,omitempty"`
	Query       string   `yaml:"query,omitempty"`
	Filters     []string `yaml:"filters,omitempty"` // owner/tag substrings, any match wins
	ResultLimit int      `yaml:"result_limit,omitempty"`
	NameFields  []string `yaml:"name_fields,omitempty"`
	URLFields   []string `yaml:"url_fields,omitempty"`
}

// Roads describes the road-network source and the subtraction parameters.
type Roads struct {
	Endpoint      string   `yaml:"endpoint,omitempty"`
	Classes       []string `yaml:"classes,omitempty"`
	BufferMeters  float64  `yaml:"buffer_meters,omitempty"`
	MarginDegrees float64  `yaml:"margin_degrees,omitempty"`
}

// Basemap describes the XYZ tile layer drawn behind comparison images.
type Basemap struct {
	URL     string `yaml:"url,omitempty"` // template with {z}, {x}, {y}
	MaxZoom int    `yaml:"max_zoom,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Catalog: Catalog{
			SearchURL:   "https://www.arcgis.com/sharing/rest/search",
			Query:       `title:"Preserve Boundary" AND type:"Feature Service"`,
			Filters:     []string{"midpen", "mrosd"},
			ResultLimit: 20,
			NameFields:  []string{"preserve", "rname", "name", "unit_name", "label"},
			URLFields:   []string{"webpageurl", "web_url", "url", "link"},
		},
		Roads: Roads{
			Endpoint:      "https://overpass-api.de/api/interpreter",
			BufferMeters:  50,
			MarginDegrees: 0.001,
		},
		Basemap: Basemap{
			URL:     "https://basemaps.cartocdn.com/light_all/{z}/{x}/{y}.png",
			MaxZoom: 17,
		},
		UserAgent: "Mozilla/5.0",
	}
}

// Load reads and parses the YAML configuration file from the specified
// path. Values absent from the file keep their defaults; an empty path
// returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
