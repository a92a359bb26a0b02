package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Contains(t, cfg.Catalog.Query, "Preserve Boundary")
	require.Equal(t, []string{"midpen", "mrosd"}, cfg.Catalog.Filters)
	require.Equal(t, 20, cfg.Catalog.ResultLimit)
	require.Equal(t, "preserve", cfg.Catalog.NameFields[0])

	require.Equal(t, 50.0, cfg.Roads.BufferMeters)
	require.Equal(t, 0.001, cfg.Roads.MarginDegrees)
	require.NotEmpty(t, cfg.Roads.Endpoint)

	require.Contains(t, cfg.Basemap.URL, "{z}")
	require.Equal(t, 17, cfg.Basemap.MaxZoom)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadOverridesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
catalog:
  query: 'title:"Park Boundary"'
roads:
  buffer_meters: 25
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Overridden values take effect.
	require.Equal(t, `title:"Park Boundary"`, cfg.Catalog.Query)
	require.Equal(t, 25.0, cfg.Roads.BufferMeters)

	// Everything the file does not mention keeps its default.
	require.Equal(t, []string{"midpen", "mrosd"}, cfg.Catalog.Filters)
	require.Equal(t, 0.001, cfg.Roads.MarginDegrees)
	require.Equal(t, 17, cfg.Basemap.MaxZoom)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("catalog: [not a mapping"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}
