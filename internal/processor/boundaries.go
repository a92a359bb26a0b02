// Package processor handles the downloading and processing of preserve
// boundary data.
package processor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	mjson "github.com/tdewolff/minify/v2/json"

	"github.com/openlands/preservemap/internal/arcgis"
	"github.com/openlands/preservemap/internal/config"
	"github.com/openlands/preservemap/internal/geometry"
	"github.com/openlands/preservemap/internal/overpass"
)

// Output file names inside the output directory.
const (
	rawFile       = "midpen_boundaries_raw.geojson"
	processedFile = "midpen_boundaries.geojson"
	comparisonDir = "preserve_comparisons"
)

// Options control which pipeline stages run and how artifacts are written.
type Options struct {
	OutputDir   string
	SkipRoads   bool
	SkipImages  bool
	Minify      bool
	ImageFormat string // "png" or "webp"
}

// Pipeline wires the catalog client, road source and geometry engine
// together and runs the boundary-processing stages strictly in order.
type Pipeline struct {
	client     *http.Client
	cfg        *config.Config
	opts       Options
	catalog    *arcgis.Client
	subtractor *Subtractor
}

// NewPipeline assembles a pipeline from configuration.
func NewPipeline(client *http.Client, cfg *config.Config, opts Options) *Pipeline {
	if opts.ImageFormat == "" {
		opts.ImageFormat = "png"
	}

	return &Pipeline{
		client: client,
		cfg:    cfg,
		opts:   opts,
		catalog: &arcgis.Client{
			HTTP:      client,
			SearchURL: cfg.Catalog.SearchURL,
			UserAgent: cfg.UserAgent,
		},
		subtractor: &Subtractor{
			Roads: &overpass.Client{
				HTTP:      client,
				Endpoint:  cfg.Roads.Endpoint,
				UserAgent: cfg.UserAgent,
				Classes:   cfg.Roads.Classes,
			},
			Geometry:      geometry.NewGEOS(),
			BufferMeters:  cfg.Roads.BufferMeters,
			MarginDegrees: cfg.Roads.MarginDegrees,
		},
	}
}

// Run executes the pipeline and writes the output artifacts. It returns
// arcgis.ErrServiceNotFound when the catalog has no matching service;
// every other error is a hard failure.
func (p *Pipeline) Run() error {
	log.Info().Str("query", p.cfg.Catalog.Query).Msg("Searching catalog for the boundary service")

	service, err := p.catalog.FindService(p.cfg.Catalog.Query, p.cfg.Catalog.ResultLimit, p.cfg.Catalog.Filters)
	if err != nil {
		return err
	}
	log.Info().Str("title", service.Title).Str("url", service.URL).Msg("Found service")

	layerURL := service.URL + "/0"

	fields, err := p.catalog.LayerFields(layerURL)
	if err != nil {
		return fmt.Errorf("layer metadata: %w", err)
	}
	log.Info().Strs("fields", fields).Msg("Inspected layer metadata")

	nameField := arcgis.SelectField(fields, p.cfg.Catalog.NameFields, arcgis.ObjectIDField)
	urlField := arcgis.SelectField(fields, p.cfg.Catalog.URLFields, "")
	log.Info().Str("name_field", nameField).Str("url_field", urlField).Msg("Selected fields")

	outFields := []string{nameField, arcgis.ObjectIDField}
	if urlField != "" {
		outFields = append(outFields, urlField)
	}

	resp, err := p.catalog.QueryFeatures(layerURL, outFields)
	if err != nil {
		return fmt.Errorf("feature query: %w", err)
	}

	raw := arcgis.ToFeatureCollection(resp, nameField, urlField)
	log.Info().
		Int("downloaded", len(resp.Features)).
		Int("converted", len(raw.Features)).
		Msg("Converted features to GeoJSON")

	if err := p.saveGeoJSON(filepath.Join(p.opts.OutputDir, rawFile), raw); err != nil {
		return err
	}

	processed := raw
	if !p.opts.SkipRoads {
		processed = p.subtractAll(raw)
		if err := p.saveGeoJSON(filepath.Join(p.opts.OutputDir, processedFile), processed); err != nil {
			return err
		}
	}

	if !p.opts.SkipImages {
		p.renderComparisons(raw, processed)
	}

	return nil
}

// subtractAll runs the road subtraction over every feature, keeping the
// originals untouched. Per-feature failures degrade to the original
// geometry and never abort the batch.
func (p *Pipeline) subtractAll(raw *geojson.FeatureCollection) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()

	for i, f := range raw.Features {
		name := featureName(f)
		log.Info().
			Int("index", i+1).
			Int("total", len(raw.Features)).
			Str("preserve", name).
			Msg("Subtracting road corridors")

		res := p.subtractor.Process(f.Geometry)
		switch {
		case res.Degraded:
			log.Warn().
				Str("preserve", name).
				Str("reason", res.Reason).
				Msg("Road subtraction failed, keeping original geometry")
		case res.Roads == 0:
			log.Debug().Str("preserve", name).Msg("No drivable roads in area")
		default:
			log.Debug().Str("preserve", name).Int("roads", res.Roads).Msg("Road corridors subtracted")
		}

		nf := geojson.NewFeature(res.Geometry)
		for k, v := range f.Properties {
			nf.Properties[k] = v
		}
		out.Append(nf)
	}

	return out
}

// saveGeoJSON writes the collection as 2-space indented UTF-8 JSON, or
// minified when requested.
func (p *Pipeline) saveGeoJSON(path string, fc *geojson.FeatureCollection) error {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return err
	}

	if p.opts.Minify {
		m := minify.New()
		m.AddFunc("application/json", mjson.Minify)
		data, err = m.Bytes("application/json", data)
		if err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}

	log.Info().Str("path", path).Int("features", len(fc.Features)).Msg("Saved boundaries")
	return nil
}

func featureName(f *geojson.Feature) string {
	if name, ok := f.Properties["name"].(string); ok {
		return name
	}
	return "Unknown"
}
