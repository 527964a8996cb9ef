// Package papertext resolves the text a paper is embedded from: the abstract
// by default, or the first pages of its PDF when full-text mode is on.
package papertext

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/arxivid"
	"github.com/hyperjump/ronbun/internal/config"
	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/pkg/utils"
)

// Store is the slice of the metadata store the source needs.
type Store interface {
	SetLocalPDF(ctx context.Context, arxivID, path string) error
	ListMissingPDFs(ctx context.Context, limit int) ([]*models.Paper, error)
}

// Source decides what text represents a paper.
type Source struct {
	store    Store
	client   *http.Client
	dir      string
	useFull  bool
	maxPages int
	logger   *zap.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger used for download and extraction events.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSource creates a source storing downloaded PDFs under dir.
func NewSource(store Store, dir string, cfg config.PDFConfig, opts ...Option) *Source {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &Source{
		store:    store,
		client:   &http.Client{Timeout: timeout},
		dir:      dir,
		useFull:  cfg.UseFullText,
		maxPages: cfg.MaxPages,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PaperText returns the text to embed for paper. In abstract mode this is the
// stored abstract. In full-text mode the local PDF is used, downloading it
// first if needed; any failure along the way falls back to the abstract so
// indexing never stalls on one broken PDF.
func (s *Source) PaperText(ctx context.Context, paper *models.Paper) (string, error) {
	if !s.useFull {
		return paper.Abstract, nil
	}
	path := paper.LocalPDFPath
	if path == "" {
		var err error
		path, err = s.Download(ctx, paper)
		if err != nil {
			s.logger.Warn("PDF download failed, using abstract",
				zap.String("arxiv_id", paper.ArxivID),
				zap.Error(err))
			return paper.Abstract, nil
		}
	}
	text, err := ExtractText(path, s.maxPages)
	if err != nil {
		s.logger.Warn("PDF extraction failed, using abstract",
			zap.String("arxiv_id", paper.ArxivID),
			zap.String("path", path),
			zap.Error(err))
		return paper.Abstract, nil
	}
	text = utils.NormalizeWhitespace(text)
	if text == "" {
		return paper.Abstract, nil
	}
	return text, nil
}

// Download fetches the paper's PDF into the source's directory and records
// the location in the store. The write goes through a temp file so a failed
// transfer never leaves a partial PDF behind.
func (s *Source) Download(ctx context.Context, paper *models.Paper) (string, error) {
	url := paper.PDFURL
	if url == "" {
		url = arxivid.PDFURL(paper.ArxivID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %s", url, resp.Status)
	}

	// arXiv serves error pages with status 200, so check the magic before
	// keeping anything.
	var header [5]byte
	if _, err := io.ReadFull(resp.Body, header[:]); err != nil {
		return "", fmt.Errorf("fetch %s: read header: %w", url, err)
	}
	if string(header[:]) != "%PDF-" {
		return "", fmt.Errorf("fetch %s: response is not a PDF", url)
	}

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("create PDF dir: %w", err)
	}
	tmp, err := os.CreateTemp(s.dir, ".download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	var n int64
	_, err = tmp.Write(header[:])
	if err == nil {
		n, err = io.Copy(tmp, resp.Body)
	}
	if err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write PDF for %s: %w", paper.ArxivID, err)
	}

	final := filepath.Join(s.dir, arxivid.LocalName(paper.ArxivID))
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename PDF for %s: %w", paper.ArxivID, err)
	}
	if err := s.store.SetLocalPDF(ctx, paper.ArxivID, final); err != nil {
		return "", fmt.Errorf("record local PDF for %s: %w", paper.ArxivID, err)
	}
	s.logger.Info("PDF downloaded",
		zap.String("arxiv_id", paper.ArxivID),
		zap.Int64("bytes", n+int64(len(header))))
	return final, nil
}

// DownloadMissing fetches PDFs for up to limit papers without a local copy.
// Individual failures are logged and skipped; the number of successful
// downloads is returned.
func (s *Source) DownloadMissing(ctx context.Context, limit int) (int, error) {
	papers, err := s.store.ListMissingPDFs(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list missing PDFs: %w", err)
	}
	downloaded := 0
	for _, paper := range papers {
		if err := ctx.Err(); err != nil {
			return downloaded, err
		}
		if _, err := s.Download(ctx, paper); err != nil {
			s.logger.Warn("PDF download failed",
				zap.String("arxiv_id", paper.ArxivID),
				zap.Error(err))
			continue
		}
		downloaded++
	}
	return downloaded, nil
}
