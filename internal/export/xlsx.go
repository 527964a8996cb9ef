// Package export renders paper listings to spreadsheet files.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/storage"
)

const sheetName = "Papers"

var headers = []string{"arXiv ID", "Title", "Authors", "Primary Category", "Published", "Indexed", "Favorite"}

// Exporter writes paper listings from the store to disk.
type Exporter struct {
	store  storage.Storage
	logger *zap.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExporter creates an exporter over store.
func NewExporter(store storage.Storage, opts ...Option) *Exporter {
	e := &Exporter{store: store, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WriteXLSX writes every paper (or only favorites) to an xlsx file at path,
// one row per paper, sorted by publication date. Returns the number of rows
// written.
func (e *Exporter) WriteXLSX(ctx context.Context, path string, favoritesOnly bool) (int, error) {
	papers, err := e.listAll(ctx, favoritesOnly)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return 0, fmt.Errorf("name sheet: %w", err)
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return 0, fmt.Errorf("write header: %w", err)
		}
	}
	if styleID, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheetName, "A1", last, styleID)
	}
	_ = f.SetColWidth(sheetName, "A", "A", 14)
	_ = f.SetColWidth(sheetName, "B", "B", 60)
	_ = f.SetColWidth(sheetName, "C", "C", 40)

	for i, paper := range papers {
		row := i + 2
		values := []interface{}{
			paper.ArxivID,
			paper.Title,
			strings.Join(paper.Authors, "; "),
			paper.PrimaryCategory,
			paper.PublishedAt.Format("2006-01-02"),
			paper.IsIndexed,
			paper.IsFavorite,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return 0, fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("write spreadsheet: %w", err)
	}
	e.logger.Info("exported papers",
		zap.String("path", path),
		zap.Int("rows", len(papers)),
		zap.Bool("favorites_only", favoritesOnly))
	return len(papers), nil
}

// listAll pages through the store; the list API caps a single page.
func (e *Exporter) listAll(ctx context.Context, favoritesOnly bool) ([]*models.Paper, error) {
	var papers []*models.Paper
	query := &models.ListQuery{Limit: 200, FavoritesOnly: favoritesOnly}
	for {
		if err := query.Validate(); err != nil {
			return nil, err
		}
		page, err := e.store.ListPapers(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("list papers: %w", err)
		}
		papers = append(papers, page...)
		if len(page) < query.Limit {
			return papers, nil
		}
		query.Offset += len(page)
	}
}
