// Package models defines core data structures for papers, queries, and search results.
package models

import "time"

// Paper represents an arXiv paper held in the metadata store.
// ArxivID is the version-stripped identifier (e.g. "2401.12345") and is the
// stable key used by every other subsystem.
type Paper struct {
	ArxivID         string    `json:"arxiv_id" db:"arxiv_id"`
	Version         int       `json:"version" db:"version"`
	Title           string    `json:"title" db:"title"`
	Authors         []string  `json:"authors" db:"authors"`
	Abstract        string    `json:"abstract" db:"abstract"`
	PrimaryCategory string    `json:"primary_category" db:"primary_category"`
	Categories      []string  `json:"categories" db:"categories"`
	PDFURL          string    `json:"pdf_url" db:"pdf_url"`
	LocalPDFPath    string    `json:"local_pdf_path,omitempty" db:"local_pdf_path"`
	PublishedAt     time.Time `json:"published_at" db:"published_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
	IsIndexed       bool      `json:"is_indexed" db:"is_indexed"`
	IsFavorite      bool      `json:"is_favorite" db:"is_favorite"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	ModifiedAt      time.Time `json:"modified_at" db:"modified_at"`
}
