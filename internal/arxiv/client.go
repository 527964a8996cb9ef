// Package arxiv fetches paper metadata from the arXiv Atom API.
package arxiv

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hyperjump/ronbun/internal/arxivid"
	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/pkg/utils"
)

const defaultBaseURL = "http://export.arxiv.org/api/query"

// Client queries the arXiv API. Requests are rate limited to one every three
// seconds, the pace the API asks of automated clients.
type Client struct {
	baseURL string
	client  *http.Client
	parser  *gofeed.Parser
	limiter *rate.Limiter
	logger  *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for fetch events.
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates a client for the public arXiv API.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		parser:  gofeed.NewParser(),
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 1),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCategory returns up to maxResults papers from category, newest
// submissions first. Entries the feed carries without a recognizable arXiv id
// are logged and skipped.
func (c *Client) FetchCategory(ctx context.Context, category string, maxResults int) ([]*models.Paper, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("search_query", "cat:"+category)
	q.Set("start", "0")
	q.Set("max_results", strconv.Itoa(maxResults))
	q.Set("sortBy", "submittedDate")
	q.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", category, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("query %s: status %s", category, resp.Status)
	}

	feed, err := c.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed for %s: %w", category, err)
	}

	papers := make([]*models.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		paper, err := paperFromEntry(item)
		if err != nil {
			c.logger.Warn("skipping feed entry",
				zap.String("category", category),
				zap.String("entry_id", item.GUID),
				zap.Error(err))
			continue
		}
		papers = append(papers, paper)
	}
	c.logger.Debug("category fetched",
		zap.String("category", category),
		zap.Int("entries", len(feed.Items)),
		zap.Int("papers", len(papers)))
	return papers, nil
}

// paperFromEntry maps one Atom entry onto a Paper. The PDF URL is derived
// from the id rather than taken from the entry's link list, which gofeed
// flattens to bare hrefs.
func paperFromEntry(item *gofeed.Item) (*models.Paper, error) {
	id, version := arxivid.Normalize(item.GUID)
	if id == "" {
		return nil, fmt.Errorf("no arXiv id in entry %q", item.GUID)
	}
	paper := &models.Paper{
		ArxivID:  id,
		Version:  version,
		Title:    utils.NormalizeWhitespace(item.Title),
		Abstract: utils.NormalizeWhitespace(item.Description),
		PDFURL:   arxivid.PDFURL(id),
	}
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			paper.Authors = append(paper.Authors, a.Name)
		}
	}
	paper.Categories = append(paper.Categories, item.Categories...)
	paper.PrimaryCategory = primaryCategory(item)
	if paper.PrimaryCategory == "" && len(paper.Categories) > 0 {
		paper.PrimaryCategory = paper.Categories[0]
	}
	if item.PublishedParsed != nil {
		paper.PublishedAt = item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		paper.UpdatedAt = item.UpdatedParsed.UTC()
	}
	return paper, nil
}

func primaryCategory(item *gofeed.Item) string {
	arxivExt, ok := item.Extensions["arxiv"]
	if !ok {
		return ""
	}
	for _, e := range arxivExt["primary_category"] {
		if term := e.Attrs["term"]; term != "" {
			return term
		}
	}
	return ""
}
