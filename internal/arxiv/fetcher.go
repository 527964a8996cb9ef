package arxiv

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/ronbun/internal/config"
	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/storage"
)

// PaperStore is the slice of the metadata store the fetcher writes to.
type PaperStore interface {
	UpsertPaper(ctx context.Context, paper *models.Paper) (storage.UpsertOutcome, error)
}

// KeywordIndexer receives created and updated papers for keyword search.
type KeywordIndexer interface {
	IndexPaper(ctx context.Context, paper *models.Paper) error
}

// Stats counts the outcome of one fetch run.
type Stats struct {
	Fetched   int `json:"fetched"`
	New       int `json:"new"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// Fetcher pulls recent papers for the configured categories into the store
// and the keyword index.
type Fetcher struct {
	client  *Client
	store   PaperStore
	keyword KeywordIndexer
	cfg     *config.ArxivConfig
	logger  *zap.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithFetcherLogger sets the logger used for fetch progress.
func WithFetcherLogger(logger *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFetcher creates a fetcher. keyword may be nil when keyword search is not
// wired up.
func NewFetcher(client *Client, store PaperStore, keyword KeywordIndexer,
	cfg *config.ArxivConfig, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  client,
		store:   store,
		keyword: keyword,
		cfg:     cfg,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch queries every configured category and upserts the results. A category
// that fails to fetch is logged and skipped; papers older than the configured
// window are ignored. Papers that were created or updated are also handed to
// the keyword index.
func (f *Fetcher) Fetch(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var cutoff time.Time
	if f.cfg.DaysBack > 0 {
		cutoff = time.Now().AddDate(0, 0, -f.cfg.DaysBack)
	}

	for _, category := range f.cfg.Categories {
		papers, err := f.client.FetchCategory(ctx, category, f.cfg.MaxResults)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			f.logger.Warn("category fetch failed",
				zap.String("category", category),
				zap.Error(err))
			stats.Failed++
			continue
		}
		for _, paper := range papers {
			if !cutoff.IsZero() && !paper.UpdatedAt.IsZero() && paper.UpdatedAt.Before(cutoff) {
				continue
			}
			stats.Fetched++
			outcome, err := f.store.UpsertPaper(ctx, paper)
			if err != nil {
				f.logger.Warn("upsert failed",
					zap.String("arxiv_id", paper.ArxivID),
					zap.Error(err))
				stats.Failed++
				continue
			}
			switch outcome {
			case storage.OutcomeCreated:
				stats.New++
			case storage.OutcomeUpdated:
				stats.Updated++
			default:
				stats.Unchanged++
			}
			if outcome != storage.OutcomeUnchanged && f.keyword != nil {
				if err := f.keyword.IndexPaper(ctx, paper); err != nil {
					f.logger.Warn("keyword indexing failed",
						zap.String("arxiv_id", paper.ArxivID),
						zap.Error(err))
				}
			}
		}
	}

	f.logger.Info("fetch finished",
		zap.Int("fetched", stats.Fetched),
		zap.Int("new", stats.New),
		zap.Int("updated", stats.Updated),
		zap.Int("unchanged", stats.Unchanged),
		zap.Int("failed", stats.Failed))
	return stats, nil
}
