// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/ronbun/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS papers (
		arxiv_id TEXT PRIMARY KEY,
		version INTEGER NOT NULL DEFAULT 0,
		title TEXT NOT NULL,
		authors TEXT NOT NULL DEFAULT '[]',
		abstract TEXT NOT NULL DEFAULT '',
		primary_category TEXT NOT NULL DEFAULT '',
		categories TEXT NOT NULL DEFAULT '[]',
		pdf_url TEXT NOT NULL DEFAULT '',
		local_pdf_path TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMP,
		updated_at TIMESTAMP,
		is_indexed INTEGER NOT NULL DEFAULT 0,
		is_favorite INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		modified_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_papers_published_at ON papers(published_at);
	CREATE INDEX IF NOT EXISTS idx_papers_is_indexed ON papers(is_indexed);
	CREATE INDEX IF NOT EXISTS idx_papers_is_favorite ON papers(is_favorite);
	`
	_, err := db.Exec(schema)
	return err
}

const paperColumns = `arxiv_id, version, title, authors, abstract, primary_category, categories,
	pdf_url, local_pdf_path, published_at, updated_at, is_indexed, is_favorite, created_at, modified_at`

// UpsertPaper inserts the paper or refreshes an existing row when the incoming
// metadata is newer (higher version, or changed title/abstract). Favorite flag,
// local PDF path and creation time survive updates. A changed abstract clears
// is_indexed so the next index update re-embeds the paper.
func (s *SQLiteStorage) UpsertPaper(ctx context.Context, paper *models.Paper) (UpsertOutcome, error) {
	existing, err := s.GetPaper(ctx, paper.ArxivID)
	if err != nil && err != ErrNotFound {
		return OutcomeUnchanged, err
	}

	authorsJSON, err := json.Marshal(paper.Authors)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("failed to marshal authors: %w", err)
	}
	categoriesJSON, err := json.Marshal(paper.Categories)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("failed to marshal categories: %w", err)
	}

	now := time.Now()

	if existing == nil {
		paper.CreatedAt = now
		paper.ModifiedAt = now
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO papers (`+paperColumns+`)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			paper.ArxivID, paper.Version, paper.Title, string(authorsJSON), paper.Abstract,
			paper.PrimaryCategory, string(categoriesJSON), paper.PDFURL, paper.LocalPDFPath,
			paper.PublishedAt, paper.UpdatedAt, paper.IsIndexed, paper.IsFavorite,
			paper.CreatedAt, paper.ModifiedAt,
		)
		if err != nil {
			return OutcomeUnchanged, err
		}
		return OutcomeCreated, nil
	}

	newer := paper.Version > existing.Version ||
		paper.Title != existing.Title ||
		paper.Abstract != existing.Abstract
	if !newer {
		*paper = *existing
		return OutcomeUnchanged, nil
	}

	// Re-embedding is only needed when the text that gets embedded changed.
	indexed := existing.IsIndexed
	if paper.Abstract != existing.Abstract {
		indexed = false
	}

	paper.LocalPDFPath = existing.LocalPDFPath
	paper.IsFavorite = existing.IsFavorite
	paper.IsIndexed = indexed
	paper.CreatedAt = existing.CreatedAt
	paper.ModifiedAt = now

	_, err = s.db.ExecContext(ctx,
		`UPDATE papers SET version = ?, title = ?, authors = ?, abstract = ?,
			primary_category = ?, categories = ?, pdf_url = ?,
			published_at = ?, updated_at = ?, is_indexed = ?, modified_at = ?
		 WHERE arxiv_id = ?`,
		paper.Version, paper.Title, string(authorsJSON), paper.Abstract,
		paper.PrimaryCategory, string(categoriesJSON), paper.PDFURL,
		paper.PublishedAt, paper.UpdatedAt, paper.IsIndexed, paper.ModifiedAt,
		paper.ArxivID,
	)
	if err != nil {
		return OutcomeUnchanged, err
	}
	return OutcomeUpdated, nil
}

// GetPaper returns a paper by its arXiv id.
func (s *SQLiteStorage) GetPaper(ctx context.Context, arxivID string) (*models.Paper, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE arxiv_id = ?`, arxivID)
	paper, err := scanPaper(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return paper, nil
}

// DeletePaper removes a paper row. Removing an absent row is not an error.
func (s *SQLiteStorage) DeletePaper(ctx context.Context, arxivID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM papers WHERE arxiv_id = ?`, arxivID)
	return err
}

// ListPapers returns papers ordered and paged by q.
func (s *SQLiteStorage) ListPapers(ctx context.Context, q *models.ListQuery) ([]*models.Paper, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	query := `SELECT ` + paperColumns + ` FROM papers`
	if q.FavoritesOnly {
		query += ` WHERE is_favorite = 1`
	}
	switch q.Sort {
	case models.SortTitle:
		query += ` ORDER BY title COLLATE NOCASE ASC`
	default:
		query += ` ORDER BY published_at DESC`
	}
	query += ` LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPapers(rows)
}

// ListUnindexed returns up to limit papers that have not been embedded yet,
// newest first.
func (s *SQLiteStorage) ListUnindexed(ctx context.Context, limit int) ([]*models.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paperColumns+` FROM papers
		 WHERE is_indexed = 0 ORDER BY published_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPapers(rows)
}

// MarkIndexed records whether the paper's embedding is present in the vector index.
func (s *SQLiteStorage) MarkIndexed(ctx context.Context, arxivID string, indexed bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE papers SET is_indexed = ?, modified_at = ? WHERE arxiv_id = ?`,
		indexed, time.Now(), arxivID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, arxivID)
	}
	return nil
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (s *SQLiteStorage) ToggleFavorite(ctx context.Context, arxivID string) (bool, error) {
	paper, err := s.GetPaper(ctx, arxivID)
	if err != nil {
		return false, err
	}
	next := !paper.IsFavorite
	_, err = s.db.ExecContext(ctx,
		`UPDATE papers SET is_favorite = ?, modified_at = ? WHERE arxiv_id = ?`,
		next, time.Now(), arxivID)
	if err != nil {
		return false, err
	}
	return next, nil
}

// SetLocalPDF records the on-disk path of the downloaded PDF. An empty path
// clears the association.
func (s *SQLiteStorage) SetLocalPDF(ctx context.Context, arxivID, path string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE papers SET local_pdf_path = ?, modified_at = ? WHERE arxiv_id = ?`,
		path, time.Now(), arxivID)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, arxivID)
	}
	return nil
}

// ListMissingPDFs returns up to limit papers that have a PDF URL but no local file yet.
func (s *SQLiteStorage) ListMissingPDFs(ctx context.Context, limit int) ([]*models.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paperColumns+` FROM papers
		 WHERE local_pdf_path = '' AND pdf_url != ''
		 ORDER BY published_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPapers(rows)
}

// CountPapers returns the total number of papers.
func (s *SQLiteStorage) CountPapers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers`).Scan(&count)
	return count, err
}

// CountIndexed returns the number of papers present in the vector index.
func (s *SQLiteStorage) CountIndexed(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers WHERE is_indexed = 1`).Scan(&count)
	return count, err
}

// CountFavorites returns the number of papers in the library.
func (s *SQLiteStorage) CountFavorites(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM papers WHERE is_favorite = 1`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPaper(row rowScanner) (*models.Paper, error) {
	var paper models.Paper
	var authorsJSON, categoriesJSON string
	var publishedAt, updatedAt sql.NullTime

	err := row.Scan(
		&paper.ArxivID, &paper.Version, &paper.Title, &authorsJSON, &paper.Abstract,
		&paper.PrimaryCategory, &categoriesJSON, &paper.PDFURL, &paper.LocalPDFPath,
		&publishedAt, &updatedAt, &paper.IsIndexed, &paper.IsFavorite,
		&paper.CreatedAt, &paper.ModifiedAt,
	)
	if err != nil {
		return nil, err
	}

	if publishedAt.Valid {
		paper.PublishedAt = publishedAt.Time
	}
	if updatedAt.Valid {
		paper.UpdatedAt = updatedAt.Time
	}
	if authorsJSON != "" {
		if err := json.Unmarshal([]byte(authorsJSON), &paper.Authors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal authors: %w", err)
		}
	}
	if categoriesJSON != "" {
		if err := json.Unmarshal([]byte(categoriesJSON), &paper.Categories); err != nil {
			return nil, fmt.Errorf("failed to unmarshal categories: %w", err)
		}
	}
	return &paper, nil
}

func scanPapers(rows *sql.Rows) ([]*models.Paper, error) {
	var papers []*models.Paper
	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		papers = append(papers, paper)
	}
	return papers, rows.Err()
}
