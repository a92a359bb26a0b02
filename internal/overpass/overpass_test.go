package overpass

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/require"
)

func TestRoads(t *testing.T) {
	var query string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		form, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		query = form.Get("data")

		_, _ = w.Write([]byte(`{"elements": [
			{"type": "way", "id": 1, "tags": {"highway": "residential"},
			 "geometry": [{"lat": 37.30, "lon": -122.10}, {"lat": 37.31, "lon": -122.09}, {"lat": 37.32, "lon": -122.08}]},
			{"type": "node", "id": 2},
			{"type": "way", "id": 3, "geometry": [{"lat": 37.30, "lon": -122.10}]}
		]}`))
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), Endpoint: srv.URL}

	bound := orb.Bound{Min: orb.Point{-122.2, 37.2}, Max: orb.Point{-122.0, 37.4}}
	lines, err := c.Roads(bound)
	require.NoError(t, err)

	// The node and the single-point way are dropped.
	require.Len(t, lines, 1)
	require.Len(t, lines[0], 3)
	require.Equal(t, orb.Point{-122.10, 37.30}, lines[0][0])

	// Bounding box order is (south, west, north, east).
	require.Contains(t, query, "(37.200000,-122.200000,37.400000,-122.000000)")
	require.Contains(t, query, `way["highway"~"^(motorway|`)
	require.Contains(t, query, "residential|unclassified)$")
	require.Contains(t, query, "out geom;")
}

func TestRoadsCustomClasses(t *testing.T) {
	var query string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))
		query = form.Get("data")
		_, _ = w.Write([]byte(`{"elements": []}`))
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), Endpoint: srv.URL, Classes: []string{"track", "service"}}

	lines, err := c.Roads(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}})
	require.NoError(t, err)
	require.Empty(t, lines)
	require.Contains(t, query, `~"^(track|service)$"`)
}

func TestRoadsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &Client{HTTP: srv.Client(), Endpoint: srv.URL}

	_, err := c.Roads(orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}
