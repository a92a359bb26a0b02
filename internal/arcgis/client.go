// Package arcgis resolves and downloads preserve boundaries from an
// ArcGIS-style feature-service catalog.
package arcgis

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ErrServiceNotFound reports that no catalog item matched the owner
// filter. Callers treat it as an expected empty result, not a failure.
var ErrServiceNotFound = errors.New("no matching service found")

// Client talks to the catalog search endpoint and feature-service layers.
type Client struct {
	HTTP      *http.Client
	SearchURL string
	UserAgent string
}

// FindService searches the catalog and returns the first item whose
// owner, snippet and tags contain any of the filter tokens
// (case-insensitive).
func (c *Client) FindService(query string, limit int, filters []string) (*ServiceItem, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("f", "json")
	params.Set("num", strconv.Itoa(limit))

	var sr searchResponse
	if err := c.get(c.SearchURL, params, &sr); err != nil {
		return nil, err
	}

	for _, item := range sr.Results {
		txt := strings.ToLower(item.Owner + item.Snippet + strings.Join(item.Tags, " "))
		for _, filter := range filters {
			if strings.Contains(txt, strings.ToLower(filter)) {
				return &item, nil
			}
		}
	}

	return nil, ErrServiceNotFound
}

// LayerFields returns the names of the fields available on a layer.
func (c *Client) LayerFields(layerURL string) ([]string, error) {
	params := url.Values{}
	params.Set("f", "json")

	var info layerInfo
	if err := c.get(layerURL, params, &info); err != nil {
		return nil, err
	}

	fields := make([]string, 0, len(info.Fields))
	for _, f := range info.Fields {
		fields = append(fields, f.Name)
	}

	return fields, nil
}

// QueryFeatures downloads every record of a layer with the given output
// fields, geometry included, in geographic coordinates. A top-level error
// in the response body is returned as an *APIError.
func (c *Client) QueryFeatures(layerURL string, outFields []string) (*QueryResponse, error) {
	params := url.Values{}
	params.Set("where", "1=1")
	params.Set("outFields", strings.Join(outFields, ","))
	params.Set("f", "json")
	params.Set("returnGeometry", "true")
	params.Set("outSR", "4326")

	var qr QueryResponse
	if err := c.get(layerURL+"/query", params, &qr); err != nil {
		return nil, err
	}

	if qr.Error != nil {
		return nil, qr.Error
	}

	return &qr, nil
}

func (c *Client) get(rawURL string, params url.Values, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = params.Encode()
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != 200 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
