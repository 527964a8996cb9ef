package keyword

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/ronbun/internal/models"
)

// paperDoc is the shape stored in Bleve. Only searchable fields go in; the
// full record stays in SQLite.
type paperDoc struct {
	ArxivID    string   `json:"arxiv_id"`
	Title      string   `json:"title"`
	Abstract   string   `json:"abstract"`
	Categories []string `json:"categories"`
}

// BleveIndex implements Index using Bleve.
type BleveIndex struct {
	index bleve.Index
}

// NewBleveIndex creates or opens a Bleve index at path. An existing index is
// opened and reused so fetched papers stay searchable across restarts. If the
// mapping below changes, remove the index directory to force a rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	textFieldMapping := bleve.NewTextFieldMapping()
	// Standard analyzer (lowercase + tokenize, no stemming) so "bayes" matches
	// the exact word; the English analyzer stems "Bayesian" -> "bayesi" and
	// "bayes" -> "bay", so they never meet.
	textFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("abstract", textFieldMapping)
	docMapping.AddFieldMappingsAt("categories", textFieldMapping)
	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	docMapping.AddFieldMappingsAt("arxiv_id", keywordFieldMapping)
	im.AddDocumentMapping("paper", docMapping)
	im.DefaultType = "paper"
	im.DefaultMapping = docMapping

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

// IndexPaper stores the searchable fields of paper under its arXiv id.
// Re-indexing an id replaces the previous document.
func (b *BleveIndex) IndexPaper(ctx context.Context, paper *models.Paper) error {
	doc := paperDoc{
		ArxivID:    paper.ArxivID,
		Title:      paper.Title,
		Abstract:   paper.Abstract,
		Categories: paper.Categories,
	}
	return b.index.Index(paper.ArxivID, doc)
}

// Search matches query against title, abstract, and categories, with title
// matches weighted double, and returns up to limit scored ids. With fuzzy set,
// each query term also matches terms within edit distance 2 for typo tolerance.
func (b *BleveIndex) Search(ctx context.Context, query string, limit int, fuzzy bool) ([]Hit, error) {
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(
		fieldQuery(query, "title", fuzzy, 2.0),
		fieldQuery(query, "abstract", fuzzy, 0),
		fieldQuery(query, "categories", fuzzy, 0),
	))
	req.Size = limit
	results, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search: %w", err)
	}
	hits := make([]Hit, len(results.Hits))
	for i, hit := range results.Hits {
		hits[i] = Hit{ArxivID: hit.ID, Score: hit.Score}
	}
	return hits, nil
}

// fieldQuery builds the per-field query: a match query, or a disjunction of
// per-term fuzzy queries when typo tolerance is requested. Fuzzy terms are
// lowercased by hand because FuzzyQuery bypasses the analyzer.
func fieldQuery(query, field string, fuzzy bool, boost float64) blevequery.Query {
	if !fuzzy {
		q := bleve.NewMatchQuery(query)
		q.SetField(field)
		if boost > 0 {
			q.SetBoost(boost)
		}
		return q
	}
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		q := bleve.NewMatchQuery(query)
		q.SetField(field)
		return q
	}
	queries := make([]blevequery.Query, 0, len(terms))
	for _, term := range terms {
		fq := bleve.NewFuzzyQuery(term)
		fq.SetFuzziness(2)
		fq.SetField(field)
		if boost > 0 {
			fq.SetBoost(boost)
		}
		queries = append(queries, fq)
	}
	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewDisjunctionQuery(queries...)
}

// Delete removes a paper from the index.
func (b *BleveIndex) Delete(ctx context.Context, arxivID string) error {
	return b.index.Delete(arxivID)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of papers in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// AllTerms returns the unique terms indexed from titles and abstracts.
func (b *BleveIndex) AllTerms() ([]string, error) {
	terms := make([]string, 0)
	seen := make(map[string]struct{})
	for _, field := range []string{"title", "abstract"} {
		dict, err := b.index.FieldDict(field)
		if err != nil {
			continue
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			if _, ok := seen[entry.Term]; !ok {
				terms = append(terms, entry.Term)
				seen[entry.Term] = struct{}{}
			}
		}
		dict.Close()
	}
	return terms, nil
}

// TermFrequency returns the number of papers containing term.
func (b *BleveIndex) TermFrequency(term string) (int, error) {
	q := bleve.NewMatchQuery(term)
	req := bleve.NewSearchRequest(q)
	req.Size = 0
	results, err := b.index.Search(req)
	if err != nil {
		return 0, fmt.Errorf("term frequency search: %w", err)
	}
	return int(results.Total), nil
}
