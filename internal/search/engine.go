// Package search orchestrates keyword and semantic queries over the paper
// store. The HTTP handlers and the CLI subcommands both go through Engine so
// they return identical results.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/index"
	"github.com/hyperjump/ronbun/internal/keyword"
	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/storage"
)

// Engine answers search queries by combining the keyword index, the vector
// index manager, and the paper store.
type Engine struct {
	store   storage.Storage
	keyword keyword.Index
	spell   *keyword.SpellChecker
	manager *index.Manager
	logger  *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a search engine with the given dependencies. spell may be
// nil; zero-hit searches then carry no suggestions.
func NewEngine(
	store storage.Storage,
	kw keyword.Index,
	spell *keyword.SpellChecker,
	manager *index.Manager,
	opts ...Option,
) *Engine {
	e := &Engine{
		store:   store,
		keyword: kw,
		spell:   spell,
		manager: manager,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search runs a keyword query over titles, abstracts, and categories. When an
// exact query finds nothing, near-miss vocabulary terms are attached as
// suggestions and the search is retried with typo tolerance.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	hits, err := e.keyword.Search(ctx, query.Query, query.Limit, query.Fuzzy)
	if err != nil {
		return nil, fmt.Errorf("keyword search: %w", err)
	}
	autoFuzzy := false
	var suggestions []string
	if len(hits) == 0 {
		if e.spell != nil {
			if corrected := e.spell.SuggestQuery(query.Query); corrected != "" {
				suggestions = []string{corrected}
			}
		}
		if !query.Fuzzy {
			hits, err = e.keyword.Search(ctx, query.Query, query.Limit, true)
			if err != nil {
				return nil, fmt.Errorf("keyword search (fuzzy retry): %w", err)
			}
			autoFuzzy = len(hits) > 0
		}
	}

	response := &models.SearchResponse{
		Results:     make([]*models.SearchResult, 0, len(hits)),
		Query:       query.Query,
		AutoFuzzy:   autoFuzzy,
		Suggestions: suggestions,
	}
	for _, hit := range hits {
		paper, err := e.store.GetPaper(ctx, hit.ArxivID)
		if err != nil {
			// The keyword index can briefly be ahead of the store after a
			// partial delete.
			e.logger.Debug("dropping hit without stored paper",
				zap.String("arxiv_id", hit.ArxivID), zap.Error(err))
			continue
		}
		response.Results = append(response.Results, &models.SearchResult{
			Paper: paper,
			Score: hit.Score,
			Rank:  len(response.Results) + 1,
		})
	}
	response.Total = len(response.Results)
	response.QueryTimeMs = time.Since(startTime).Milliseconds()
	return response, nil
}

// Semantic embeds the query text and returns the k nearest papers.
func (e *Engine) Semantic(ctx context.Context, query string, k int) (*models.SimilarResponse, error) {
	startTime := time.Now()
	matches, err := e.manager.SimilarByText(ctx, query, k)
	if err != nil {
		return nil, err
	}
	response := e.similarResponse(ctx, matches)
	response.Query = query
	response.QueryTimeMs = time.Since(startTime).Milliseconds()
	return response, nil
}

// Similar returns the k papers nearest to the given paper, never including
// the paper itself.
func (e *Engine) Similar(ctx context.Context, arxivID string, k int) (*models.SimilarResponse, error) {
	startTime := time.Now()
	matches, err := e.manager.SimilarByID(ctx, arxivID, k)
	if err != nil {
		return nil, err
	}
	response := e.similarResponse(ctx, matches)
	response.QueryTimeMs = time.Since(startTime).Milliseconds()
	return response, nil
}

func (e *Engine) similarResponse(ctx context.Context, matches []index.Match) *models.SimilarResponse {
	response := &models.SimilarResponse{
		Results: make([]*models.SimilarResult, 0, len(matches)),
	}
	for _, match := range matches {
		paper, err := e.store.GetPaper(ctx, match.ArxivID)
		if err != nil {
			e.logger.Debug("dropping match without stored paper",
				zap.String("arxiv_id", match.ArxivID), zap.Error(err))
			continue
		}
		response.Results = append(response.Results, &models.SimilarResult{
			Paper:    paper,
			Distance: match.Distance,
			Rank:     len(response.Results) + 1,
		})
	}
	response.Total = len(response.Results)
	return response
}

// Status gathers store counts and vector index state. diskPaths, when given,
// are summed into the disk usage figure.
func (e *Engine) Status(ctx context.Context, version string, diskPaths ...string) (*models.Status, error) {
	papers, err := e.store.CountPapers(ctx)
	if err != nil {
		return nil, fmt.Errorf("count papers: %w", err)
	}
	indexed, err := e.store.CountIndexed(ctx)
	if err != nil {
		return nil, fmt.Errorf("count indexed papers: %w", err)
	}
	favorites, err := e.store.CountFavorites(ctx)
	if err != nil {
		return nil, fmt.Errorf("count favorites: %w", err)
	}
	status := &models.Status{
		Papers:       int(papers),
		Indexed:      int(indexed),
		Favorites:    int(favorites),
		IndexVariant: e.manager.Variant(),
		IndexTrained: e.manager.Trained(),
		IndexCount:   e.manager.Count(),
		Version:      version,
	}
	if len(diskPaths) > 0 {
		if n, err := storage.DiskUsageBytes(diskPaths...); err == nil {
			status.DiskUsageByte = n
		}
	}
	return status, nil
}
