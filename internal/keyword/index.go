// Package keyword provides keyword search over paper metadata.
package keyword

import (
	"context"

	"github.com/hyperjump/ronbun/internal/models"
)

// Hit is a single keyword search match.
type Hit struct {
	ArxivID string  `json:"arxiv_id"`
	Score   float64 `json:"score"`
}

// Index defines keyword search operations over papers.
type Index interface {
	IndexPaper(ctx context.Context, paper *models.Paper) error
	Delete(ctx context.Context, arxivID string) error
	// Search returns up to limit scored ids. With fuzzy set, query terms also
	// match near misses for typo tolerance.
	Search(ctx context.Context, query string, limit int, fuzzy bool) ([]Hit, error)
	// DocCount returns the total number of papers in the index.
	DocCount() (uint64, error)
	Close() error
}

// TermDictionary exposes the index vocabulary for spell suggestions.
type TermDictionary interface {
	// AllTerms returns every unique term indexed from titles and abstracts.
	AllTerms() ([]string, error)
	// TermFrequency returns the number of papers containing the term.
	TermFrequency(term string) (int, error)
}
