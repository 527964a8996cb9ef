package models

import "fmt"

// Sort orders accepted by ListQuery.
const (
	SortPublished = "published"
	SortTitle     = "title"
)

// SearchQuery represents a keyword search request.
type SearchQuery struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
	// Fuzzy enables typo-tolerant matching in the keyword index.
	Fuzzy bool `json:"fuzzy,omitempty"`
}

// Validate ensures the query is non-empty and normalizes the limit.
func (q *SearchQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// ListQuery represents a paper listing request.
type ListQuery struct {
	Offset        int    `json:"offset,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	Sort          string `json:"sort,omitempty"`
	FavoritesOnly bool   `json:"favorites_only,omitempty"`
}

// Validate normalizes paging and rejects unknown sort orders.
func (q *ListQuery) Validate() error {
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	switch q.Sort {
	case "":
		q.Sort = SortPublished
	case SortPublished, SortTitle:
	default:
		return fmt.Errorf("unknown sort order %q", q.Sort)
	}
	return nil
}

// ClampK normalizes a similar/semantic-search result count: default 10, cap 100.
func ClampK(k int) int {
	if k <= 0 {
		return 10
	}
	if k > 100 {
		return 100
	}
	return k
}
