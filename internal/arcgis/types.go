package arcgis

import "fmt"

// Internal structure for JSON parsing
type searchResponse struct {
	Results []ServiceItem `json:"results"`
}

// ServiceItem is one feature-service descriptor from a catalog search.
type ServiceItem struct {
	Title   string   `json:"title"`
	Owner   string   `json:"owner"`
	Snippet string   `json:"snippet"`
	Tags    []string `json:"tags"`
	URL     string   `json:"url"`
}

// Internal structure for JSON parsing
type layerInfo struct {
	Fields []struct {
		Name string `json:"name"`
	} `json:"fields"`
}

// QueryResponse is the layer query payload: either features or a
// terminal error, never both.
type QueryResponse struct {
	Features []Record  `json:"features"`
	Error    *APIError `json:"error"`
}

// Record is a single feature in the service's ring-based format.
type Record struct {
	Attributes map[string]interface{} `json:"attributes"`
	Geometry   RecordGeometry         `json:"geometry"`
}

// RecordGeometry carries the proprietary polygon encoding: an ordered
// sequence of closed rings, outer boundary first.
type RecordGeometry struct {
	Rings [][][]float64 `json:"rings"`
}

// APIError is the error object the service returns in place of features.
type APIError struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}
