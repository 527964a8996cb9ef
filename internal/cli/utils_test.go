package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/ronbun/internal/models"
)

func testPaper(id, title string) *models.Paper {
	return &models.Paper{
		ArxivID:         id,
		Version:         1,
		Title:           title,
		Authors:         []string{"A. Author", "B. Author"},
		Abstract:        "We study the thing and find the other thing.",
		PrimaryCategory: "cs.LG",
		Categories:      []string{"cs.LG"},
		PublishedAt:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	response := &models.SearchResponse{
		Query:       "test query",
		QueryTimeMs: 42,
		Total:       1,
		Results: []*models.SearchResult{
			{Rank: 1, Score: 0.9, Paper: testPaper("2401.00001", "Test Paper")},
		},
	}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != response.Query || decoded.QueryTimeMs != response.QueryTimeMs {
		t.Errorf("decoded query=%q query_time=%d, want query=%q query_time=%d",
			decoded.Query, decoded.QueryTimeMs, response.Query, response.QueryTimeMs)
	}
	if len(decoded.Results) != 1 || decoded.Results[0].Paper.ArxivID != "2401.00001" {
		t.Errorf("decoded results: want one result with id 2401.00001, got %+v", decoded.Results)
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	response := &models.SearchResponse{
		Query:       "foo",
		QueryTimeMs: 10,
		Total:       1,
		Results: []*models.SearchResult{
			{Rank: 1, Score: 0.5, Paper: testPaper("2401.00001", "Title One")},
		},
	}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Found 1 results", "10ms", "Rank: 1", "2401.00001v1", "Title One", "A. Author"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	if strings.Contains(out, "Did you mean") || strings.Contains(out, "fuzzy") {
		t.Errorf("unexpected suggestion or fuzzy note in output:\n%s", out)
	}
}

func TestWriteSearchResults_text_suggestionsAndAutoFuzzy(t *testing.T) {
	response := &models.SearchResponse{
		Query:       "difussion",
		QueryTimeMs: 3,
		Total:       1,
		AutoFuzzy:   true,
		Suggestions: []string{"diffusion"},
		Results: []*models.SearchResult{
			{Rank: 1, Score: 0.2, Paper: testPaper("2401.00002", "Diffusion Models")},
		},
	}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Did you mean: diffusion?") {
		t.Errorf("expected suggestion line in output:\n%s", out)
	}
	if !strings.Contains(out, "fuzzy matches") {
		t.Errorf("expected fuzzy retry note in output:\n%s", out)
	}
}

func TestWriteSearchResults_compact(t *testing.T) {
	response := &models.SearchResponse{
		Query: "foo",
		Total: 2,
		Results: []*models.SearchResult{
			{Rank: 1, Score: 0.5, Paper: testPaper("2401.00001", "First")},
			{Rank: 2, Score: 0.3, Paper: testPaper("2401.00002", "Second")},
		},
	}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputCompact); err != nil {
		t.Fatalf("WriteSearchResults(compact): %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("compact output: want 2 lines, got %d:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "2401.00001") || !strings.Contains(lines[0], "First") {
		t.Errorf("compact line 1 = %q", lines[0])
	}
}

func TestWriteSearchResults_unknownFormatTreatedAsText(t *testing.T) {
	response := &models.SearchResponse{Query: "x"}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputFormat("unknown")); err != nil {
		t.Fatalf("WriteSearchResults(unknown): %v", err)
	}
	if !strings.Contains(buf.String(), "Found") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestWriteSimilarResults_text(t *testing.T) {
	response := &models.SimilarResponse{
		Query:       "neural nets",
		QueryTimeMs: 7,
		Total:       1,
		Results: []*models.SimilarResult{
			{Rank: 1, Distance: 0.1234, Paper: testPaper("2401.00003", "Neural Networks")},
		},
	}
	var buf bytes.Buffer
	if err := WriteSimilarResults(&buf, response, OutputText); err != nil {
		t.Fatalf("WriteSimilarResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Found 1 results", "Distance: 0.1234", "2401.00003v1", "Neural Networks"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteSimilarResults_JSON(t *testing.T) {
	response := &models.SimilarResponse{
		Total: 1,
		Results: []*models.SimilarResult{
			{Rank: 1, Distance: 0.5, Paper: testPaper("2401.00004", "Paper")},
		},
	}
	var buf bytes.Buffer
	if err := WriteSimilarResults(&buf, response, OutputJSON); err != nil {
		t.Fatalf("WriteSimilarResults(json): %v", err)
	}
	var decoded models.SimilarResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Results) != 1 || decoded.Results[0].Distance != 0.5 {
		t.Errorf("decoded results = %+v", decoded.Results)
	}
}

func TestWritePapers_text(t *testing.T) {
	favorite := testPaper("2401.00001", "Starred Paper")
	favorite.IsFavorite = true
	favorite.IsIndexed = true
	plain := testPaper("2401.00002", "Plain Paper")

	var buf bytes.Buffer
	if err := WritePapers(&buf, []*models.Paper{favorite, plain}, OutputText); err != nil {
		t.Fatalf("WritePapers(text): %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "*i 2401.00001") {
		t.Errorf("expected favorite+indexed markers for 2401.00001:\n%s", out)
	}
	if !strings.Contains(out, "2401.00002") || !strings.Contains(out, "2024-01-10") {
		t.Errorf("expected plain paper with date:\n%s", out)
	}
	if !strings.Contains(out, "2 papers") {
		t.Errorf("expected trailing count:\n%s", out)
	}
}

func TestWriteStatus_text(t *testing.T) {
	status := &models.Status{
		Papers:        10,
		Indexed:       8,
		Favorites:     2,
		IndexVariant:  "ivf",
		IndexTrained:  true,
		IndexCount:    8,
		DiskUsageByte: 2048,
		Version:       "test",
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, status, OutputText); err != nil {
		t.Fatalf("WriteStatus(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Papers:     10", "Indexed:    8", "ivf", "trained=true", "vectors=8", "2.0 KB", "test"} {
		if !strings.Contains(out, sub) {
			t.Errorf("status output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteStatus_JSON(t *testing.T) {
	status := &models.Status{Papers: 1, IndexVariant: "flat", Version: "dev"}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, status, OutputJSON); err != nil {
		t.Fatalf("WriteStatus(json): %v", err)
	}
	var decoded models.Status
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Papers != 1 || decoded.IndexVariant != "flat" {
		t.Errorf("decoded status = %+v", decoded)
	}
}

func TestTruncateWords(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		maxWords int
		want     string
	}{
		{"empty", "", 3, ""},
		{"few words", "one two", 3, "one two"},
		{"exact", "one two three", 3, "one two three"},
		{"more", "one two three four", 3, "one two three..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateWords(tt.s, tt.maxWords)
			if got != tt.want {
				t.Errorf("TruncateWords(%q, %d) = %q, want %q", tt.s, tt.maxWords, got, tt.want)
			}
		})
	}
}
