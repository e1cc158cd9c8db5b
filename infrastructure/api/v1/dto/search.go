// Package dto holds the request and response bodies of the v1 API.
package dto

// SearchRequest is the POST /api/v1/search body.
type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// ColorMatch is one ranked color.
type ColorMatch struct {
	Name      string  `json:"name"`
	Hex       string  `json:"hex"`
	IsCurated bool    `json:"is_curated"`
	Distance  float64 `json:"distance"`
}

// SearchMeta describes how a search was answered.
type SearchMeta struct {
	Query     string `json:"query"`
	Backend   string `json:"backend"`
	Model     string `json:"model"`
	Count     int    `json:"count"`
	ElapsedMS int64  `json:"elapsed_ms"`
}

// SearchResponse is the search response body.
type SearchResponse struct {
	Data []ColorMatch `json:"data"`
	Meta SearchMeta   `json:"meta"`
}
