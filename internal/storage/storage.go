// Package storage defines the persistence interface for paper metadata.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/ronbun/internal/models"
)

// ErrNotFound is returned when no paper exists for the requested arXiv id.
var ErrNotFound = errors.New("paper not found")

// UpsertOutcome reports what UpsertPaper did with the incoming record.
type UpsertOutcome int

const (
	// OutcomeCreated means the paper was inserted for the first time.
	OutcomeCreated UpsertOutcome = iota
	// OutcomeUpdated means an existing row was replaced with newer metadata.
	OutcomeUpdated
	// OutcomeUnchanged means the stored row was already current.
	OutcomeUnchanged
)

func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	}
	return "unknown"
}

// Storage defines paper metadata persistence operations.
type Storage interface {
	// Paper operations
	UpsertPaper(ctx context.Context, paper *models.Paper) (UpsertOutcome, error)
	GetPaper(ctx context.Context, arxivID string) (*models.Paper, error)
	DeletePaper(ctx context.Context, arxivID string) error
	ListPapers(ctx context.Context, q *models.ListQuery) ([]*models.Paper, error)

	// Index bookkeeping
	ListUnindexed(ctx context.Context, limit int) ([]*models.Paper, error)
	MarkIndexed(ctx context.Context, arxivID string, indexed bool) error

	// Library
	ToggleFavorite(ctx context.Context, arxivID string) (bool, error)

	// PDF bookkeeping
	SetLocalPDF(ctx context.Context, arxivID, path string) error
	ListMissingPDFs(ctx context.Context, limit int) ([]*models.Paper, error)

	// Stats
	CountPapers(ctx context.Context) (int64, error)
	CountIndexed(ctx context.Context) (int64, error)
	CountFavorites(ctx context.Context) (int64, error)

	Close() error
}
