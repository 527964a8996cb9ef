// Package cli provides output rendering for the ronbun command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/ronbun/internal/models"
	"github.com/hyperjump/ronbun/internal/storage"
	"github.com/hyperjump/ronbun/pkg/utils"
)

// OutputFormat selects how command results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one line per result.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSearchResults writes keyword search results to w in the given format.
// Use OutputJSON for parseable output consumable by other apps.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, result := range response.Results {
			fmt.Fprintf(w, "%-16s %8.4f  %s\n", result.Paper.ArxivID, result.Score,
				utils.Truncate(result.Paper.Title, 70))
		}
		return nil
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "\nFound %d results in %dms\n", response.Total, response.QueryTimeMs)
	if response.AutoFuzzy {
		fmt.Fprintln(w, "No exact matches; showing fuzzy matches instead.")
	}
	if len(response.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s?\n", strings.Join(response.Suggestions, ", "))
	}
	fmt.Fprintln(w)
	for _, result := range response.Results {
		writePaperResult(w, result.Rank, fmt.Sprintf("Score: %.4f", result.Score), result.Paper)
	}
}

// WriteSimilarResults writes semantic hits to w in the given format. It serves
// both free-text semantic search and similar-paper lookups.
func WriteSimilarResults(w io.Writer, response *models.SimilarResponse, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, response)
	case OutputCompact:
		for _, result := range response.Results {
			fmt.Fprintf(w, "%-16s %8.4f  %s\n", result.Paper.ArxivID, result.Distance,
				utils.Truncate(result.Paper.Title, 70))
		}
		return nil
	default:
		fmt.Fprintf(w, "\nFound %d results in %dms\n\n", response.Total, response.QueryTimeMs)
		for _, result := range response.Results {
			writePaperResult(w, result.Rank, fmt.Sprintf("Distance: %.4f", result.Distance), result.Paper)
		}
		return nil
	}
}

func writePaperResult(w io.Writer, rank int, scoreLine string, paper *models.Paper) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "Rank: %d | %s\n", rank, scoreLine)
	fmt.Fprintf(w, "arXiv: %sv%d\n", paper.ArxivID, paper.Version)
	if paper.Title != "" {
		fmt.Fprintf(w, "Title: %s\n", paper.Title)
	}
	if len(paper.Authors) > 0 {
		fmt.Fprintf(w, "Authors: %s\n", utils.Truncate(strings.Join(paper.Authors, ", "), 120))
	}
	fmt.Fprintf(w, "\n%s\n", TruncateWords(paper.Abstract, 50))
	fmt.Fprintln(w)
}

// WritePapers writes a paper listing to w. Text output marks favorites with a
// star and indexed papers with "i" in the leading columns.
func WritePapers(w io.Writer, papers []*models.Paper, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, papers)
	default:
		for _, paper := range papers {
			favorite := " "
			if paper.IsFavorite {
				favorite = "*"
			}
			indexed := " "
			if paper.IsIndexed {
				indexed = "i"
			}
			fmt.Fprintf(w, "%s%s %-16s %s  %s\n", favorite, indexed, paper.ArxivID,
				paper.PublishedAt.Format("2006-01-02"), utils.Truncate(paper.Title, 80))
		}
		fmt.Fprintf(w, "\n%d papers\n", len(papers))
		return nil
	}
}

// WriteStatus writes the system status summary to w in the given format.
func WriteStatus(w io.Writer, status *models.Status, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, status)
	default:
		fmt.Fprintf(w, "Papers:     %d\n", status.Papers)
		fmt.Fprintf(w, "Indexed:    %d\n", status.Indexed)
		fmt.Fprintf(w, "Favorites:  %d\n", status.Favorites)
		fmt.Fprintf(w, "Index:      %s (trained=%t, vectors=%d)\n",
			status.IndexVariant, status.IndexTrained, status.IndexCount)
		fmt.Fprintf(w, "Disk usage: %s\n", storage.FormatBytes(status.DiskUsageByte))
		fmt.Fprintf(w, "Version:    %s\n", status.Version)
		return nil
	}
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}
