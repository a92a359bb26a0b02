package processor

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"

	"github.com/openlands/preservemap/internal/arcgis"
	"github.com/openlands/preservemap/internal/config"
)

// newFakeServices stands up one server playing catalog, feature service
// and road API at once. The catalog result must point back at the server,
// hence the indirection through a pointer.
func newFakeServices(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	mux := http.NewServeMux()

	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"results": [
			{"title": "Preserve Boundary", "owner": "MidpenData", "url": "%s/service"}
		]}`, srv.URL)
	})

	mux.HandleFunc("/service/0", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"fields": [{"name": "PRESERVE"}, {"name": "OBJECTID"}]}`))
	})

	mux.HandleFunc("/service/0/query", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"features": [
			{"attributes": {"PRESERVE": "Foothills", "OBJECTID": 12},
			 "geometry": {"rings": [[
				[-122.105, 37.295], [-122.095, 37.295], [-122.095, 37.305],
				[-122.105, 37.305], [-122.105, 37.295]
			 ]]}}
		]}`))
	})

	mux.HandleFunc("/overpass", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elements": []}`))
	})

	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(srv *httptest.Server) *config.Config {
	cfg := config.Default()
	cfg.Catalog.SearchURL = srv.URL + "/search"
	cfg.Roads.Endpoint = srv.URL + "/overpass"
	return cfg
}

func TestPipelineRun(t *testing.T) {
	srv := newFakeServices(t)
	outDir := t.TempDir()

	p := NewPipeline(srv.Client(), testConfig(srv), Options{
		OutputDir:  outDir,
		SkipImages: true,
	})

	require.NoError(t, p.Run())

	for _, name := range []string{rawFile, processedFile} {
		data, err := os.ReadFile(filepath.Join(outDir, name))
		require.NoError(t, err, name)

		fc, err := geojson.UnmarshalFeatureCollection(data)
		require.NoError(t, err, name)
		require.Len(t, fc.Features, 1, name)

		f := fc.Features[0]
		require.Equal(t, "Foothills", f.Properties["name"])
		require.EqualValues(t, 12, f.Properties["id"])

		poly, ok := f.Geometry.(orb.Polygon)
		require.True(t, ok, name)
		require.Len(t, poly, 1)
		require.Len(t, poly[0], 5)
	}
}

func TestPipelineSkipRoads(t *testing.T) {
	srv := newFakeServices(t)
	outDir := t.TempDir()

	p := NewPipeline(srv.Client(), testConfig(srv), Options{
		OutputDir:  outDir,
		SkipRoads:  true,
		SkipImages: true,
	})

	require.NoError(t, p.Run())

	_, err := os.Stat(filepath.Join(outDir, rawFile))
	require.NoError(t, err)

	// No road stage, no processed artifact.
	_, err = os.Stat(filepath.Join(outDir, processedFile))
	require.True(t, os.IsNotExist(err))
}

func TestPipelineMinify(t *testing.T) {
	srv := newFakeServices(t)
	outDir := t.TempDir()

	p := NewPipeline(srv.Client(), testConfig(srv), Options{
		OutputDir:  outDir,
		SkipRoads:  true,
		SkipImages: true,
		Minify:     true,
	})

	require.NoError(t, p.Run())

	data, err := os.ReadFile(filepath.Join(outDir, rawFile))
	require.NoError(t, err)
	require.NotContains(t, string(data), "\n")

	var fc geojson.FeatureCollection
	require.NoError(t, json.Unmarshal(data, &fc))
	require.Len(t, fc.Features, 1)
}

func TestPipelineServiceNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": [
			{"title": "Unrelated Layer", "owner": "someone_else", "url": "https://example.com/x"}
		]}`))
	}))
	defer srv.Close()

	cfg := config.Default()
	cfg.Catalog.SearchURL = srv.URL

	p := NewPipeline(srv.Client(), cfg, Options{OutputDir: t.TempDir(), SkipImages: true})

	err := p.Run()
	require.ErrorIs(t, err, arcgis.ErrServiceNotFound)
}
