package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/ronbun/internal/models"
)

type fakeDict struct {
	freqs map[string]int
}

func (d *fakeDict) AllTerms() ([]string, error) {
	terms := make([]string, 0, len(d.freqs))
	for t := range d.freqs {
		terms = append(terms, t)
	}
	return terms, nil
}

func (d *fakeDict) TermFrequency(term string) (int, error) {
	return d.freqs[term], nil
}

func newChecker(opts ...SpellCheckerOption) *SpellChecker {
	dict := &fakeDict{freqs: map[string]int{
		"transformer": 40,
		"translation": 12,
		"attention":   35,
		"diffusion":   20,
		"gradient":    15,
	}}
	return NewSpellChecker(dict, opts...)
}

func TestSpellChecker_Known(t *testing.T) {
	s := newChecker()
	if !s.Known("transformer") {
		t.Error("transformer should be known")
	}
	if !s.Known("TRANSFORMER") {
		t.Error("lookup should be case-insensitive")
	}
	if s.Known("tranformer") {
		t.Error("typo must not be known")
	}
}

func TestSpellChecker_Suggest(t *testing.T) {
	s := newChecker()

	suggestions := s.Suggest("tranformer")
	if len(suggestions) == 0 {
		t.Fatal("expected suggestions for \"tranformer\"")
	}
	if suggestions[0].Term != "transformer" {
		t.Errorf("best suggestion: got %q, want transformer", suggestions[0].Term)
	}
	if suggestions[0].Distance != 1 {
		t.Errorf("distance: got %d, want 1", suggestions[0].Distance)
	}

	if got := s.Suggest("zzzzzzzz"); len(got) != 0 {
		t.Errorf("hopeless term should yield nothing, got %v", got)
	}
}

func TestSpellChecker_SuggestPrefersFrequent(t *testing.T) {
	// "attension" is distance 1 from neither; distance to "attention" is 1.
	// Craft two candidates at equal distance with different frequencies.
	dict := &fakeDict{freqs: map[string]int{
		"attention": 50,
		"attension": 0, // not useful, zero frequency filtered by minFreq
		"attentions": 2,
	}}
	s := NewSpellChecker(dict)
	suggestions := s.Suggest("attentian")
	if len(suggestions) == 0 {
		t.Fatal("expected suggestions")
	}
	if suggestions[0].Term != "attention" {
		t.Errorf("more frequent term should rank first, got %q", suggestions[0].Term)
	}
}

func TestSpellChecker_SuggestQuery(t *testing.T) {
	s := newChecker()

	if got := s.SuggestQuery("tranformer attention"); got != "transformer attention" {
		t.Errorf("SuggestQuery: got %q", got)
	}
	if got := s.SuggestQuery("transformer attention"); got != "" {
		t.Errorf("fully known query should yield nothing, got %q", got)
	}
	if got := s.SuggestQuery("xqzwvk"); got != "" {
		t.Errorf("uncorrectable query should yield nothing, got %q", got)
	}
}

func TestSpellChecker_MaxSuggestions(t *testing.T) {
	dict := &fakeDict{freqs: map[string]int{
		"cat": 5, "bat": 5, "hat": 5, "mat": 5, "rat": 5, "sat": 5,
	}}
	s := NewSpellChecker(dict, WithMaxSuggestions(3))
	if got := s.Suggest("fat"); len(got) != 3 {
		t.Errorf("suggestions: got %d, want 3", len(got))
	}
}

func TestSpellChecker_MaxDistance(t *testing.T) {
	dict := &fakeDict{freqs: map[string]int{"transformer": 10}}
	s := NewSpellChecker(dict, WithMaxDistance(1))
	if got := s.Suggest("tranfomer"); len(got) != 0 {
		t.Errorf("distance-2 typo should be out of range at max distance 1, got %v", got)
	}
}

func TestSpellChecker_OverBleveIndex(t *testing.T) {
	idx, err := NewBleveIndex(filepath.Join(t.TempDir(), "bleve"))
	if err != nil {
		t.Fatalf("NewBleveIndex: %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	papers := []*models.Paper{
		{ArxivID: "2401.00001", Title: "Attention Mechanisms", Abstract: "Survey of attention in transformers."},
		{ArxivID: "2401.00002", Title: "Sparse Attention", Abstract: "Attention with reduced cost."},
	}
	for _, p := range papers {
		if err := idx.IndexPaper(ctx, p); err != nil {
			t.Fatalf("IndexPaper: %v", err)
		}
	}

	s := NewSpellChecker(idx)
	suggestions := s.Suggest("attentoin")
	if len(suggestions) == 0 {
		t.Fatal("expected suggestions from the live term dictionary")
	}
	if suggestions[0].Term != "attention" {
		t.Errorf("best suggestion: got %q, want attention", suggestions[0].Term)
	}
}
