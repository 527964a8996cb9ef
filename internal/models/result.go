package models

// SearchResult is a single keyword search hit.
type SearchResult struct {
	Paper *Paper  `json:"paper"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// SearchResponse is the response for a keyword search request.
type SearchResponse struct {
	Results     []*SearchResult `json:"results"`
	Total       int             `json:"total"`
	QueryTimeMs int64           `json:"query_time_ms"`
	Query       string          `json:"query"`
	// Suggestions carries "did you mean" terms, populated when the exact
	// query found nothing and the term dictionary had near misses.
	Suggestions []string `json:"suggestions,omitempty"`
	// AutoFuzzy is set when an exact search found nothing and the results
	// come from an automatic fuzzy retry.
	AutoFuzzy bool `json:"auto_fuzzy,omitempty"`
}

// SimilarResult is a single semantic hit. Distance is L2 (smaller = closer).
type SimilarResult struct {
	Paper    *Paper  `json:"paper"`
	Distance float64 `json:"distance"`
	Rank     int     `json:"rank"`
}

// SimilarResponse is the response for semantic-search and similar-paper requests.
type SimilarResponse struct {
	Results     []*SimilarResult `json:"results"`
	Total       int              `json:"total"`
	QueryTimeMs int64            `json:"query_time_ms"`
	Query       string           `json:"query,omitempty"`
}

// Status summarizes the running system for the status endpoint and CLI.
type Status struct {
	Papers        int    `json:"papers"`
	Indexed       int    `json:"indexed"`
	Favorites     int    `json:"favorites"`
	IndexVariant  string `json:"index_variant"`
	IndexTrained  bool   `json:"index_trained"`
	IndexCount    int    `json:"index_count"`
	DiskUsageByte int64  `json:"disk_usage_bytes"`
	Version       string `json:"version"`
}
