package models

import (
	"testing"
)

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *SearchQuery
		wantErr bool
	}{
		{"empty query", &SearchQuery{Query: ""}, true},
		{"valid query", &SearchQuery{Query: "diffusion"}, false},
		{"sets default limit", &SearchQuery{Query: "x", Limit: 0}, false},
		{"caps limit at 100", &SearchQuery{Query: "x", Limit: 500}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tt.query.Limit <= 0 {
				t.Error("expected default limit to be set")
			}
			if tt.query.Limit > 100 {
				t.Errorf("expected limit capped at 100, got %d", tt.query.Limit)
			}
		})
	}
}

func TestListQuery_Validate(t *testing.T) {
	q := &ListQuery{Offset: -3, Limit: 1000}
	if err := q.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if q.Offset != 0 {
		t.Errorf("negative offset not reset: %d", q.Offset)
	}
	if q.Limit != 200 {
		t.Errorf("limit not capped: %d", q.Limit)
	}
	if q.Sort != SortPublished {
		t.Errorf("default sort = %q, want %q", q.Sort, SortPublished)
	}

	bad := &ListQuery{Sort: "relevance"}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for unknown sort order")
	}
}

func TestClampK(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 10},
		{-5, 10},
		{7, 7},
		{100, 100},
		{101, 100},
	}
	for _, tt := range tests {
		if got := ClampK(tt.in); got != tt.want {
			t.Errorf("ClampK(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
