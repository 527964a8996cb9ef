package keyword

import (
	"sort"
	"strings"
	"sync"
)

// Suggestion is one "did you mean" candidate for a misspelled term.
type Suggestion struct {
	Term      string  `json:"term"`
	Distance  int     `json:"distance"`
	Frequency int     `json:"frequency"`
	Score     float64 `json:"score"`
}

// SpellChecker proposes corrections for query terms missing from the index
// vocabulary. The vocabulary is cached; call RefreshCache after bulk indexing.
type SpellChecker struct {
	dict           TermDictionary
	maxDistance    int
	minFreq        int
	maxSuggestions int

	mu     sync.RWMutex
	terms  []string
	known  map[string]struct{}
	loaded bool
}

// SpellCheckerOption configures a SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance for suggestions.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency sets the minimum document frequency for suggestions.
// Rarer terms are ignored as likely noise.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxSuggestions sets the maximum number of suggestions per term.
func WithMaxSuggestions(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxSuggestions = n
		}
	}
}

// NewSpellChecker creates a spell checker over dict.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{
		dict:           dict,
		maxDistance:    2,
		minFreq:        1,
		maxSuggestions: 5,
		known:          make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshCache reloads the vocabulary from the dictionary.
func (s *SpellChecker) RefreshCache() error {
	terms, err := s.dict.AllTerms()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms = terms
	s.known = make(map[string]struct{}, len(terms))
	for _, t := range terms {
		s.known[strings.ToLower(t)] = struct{}{}
	}
	s.loaded = true
	return nil
}

func (s *SpellChecker) ensureLoaded() {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if !loaded {
		_ = s.RefreshCache()
	}
}

// Known reports whether term appears in the index vocabulary.
func (s *SpellChecker) Known(term string) bool {
	s.ensureLoaded()
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.known[strings.ToLower(term)]
	return ok
}

// Suggest returns vocabulary terms within the edit distance limit of term,
// best first. Closer and more frequent terms score higher.
func (s *SpellChecker) Suggest(term string) []Suggestion {
	s.ensureLoaded()
	termLower := strings.ToLower(term)

	s.mu.RLock()
	terms := s.terms
	s.mu.RUnlock()

	suggestions := make([]Suggestion, 0)
	for _, candidate := range terms {
		candidateLower := strings.ToLower(candidate)
		if candidateLower == termLower {
			continue
		}
		// Length difference bounds the edit distance, so skip the expensive
		// comparison when it cannot be within range.
		lenDiff := len(candidateLower) - len(termLower)
		if lenDiff < -s.maxDistance || lenDiff > s.maxDistance {
			continue
		}
		distance := LevenshteinDistance(termLower, candidateLower)
		if distance > s.maxDistance {
			continue
		}
		freq, err := s.dict.TermFrequency(candidate)
		if err != nil || freq < s.minFreq {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Term:      candidate,
			Distance:  distance,
			Frequency: freq,
			Score:     float64(freq) / float64(distance+1),
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})
	if len(suggestions) > s.maxSuggestions {
		suggestions = suggestions[:s.maxSuggestions]
	}
	return suggestions
}

// SuggestQuery returns query with each unknown term replaced by its best
// suggestion. The empty string means no better query was found.
func (s *SpellChecker) SuggestQuery(query string) string {
	words := strings.Fields(query)
	corrected := make([]string, 0, len(words))
	changed := false
	for _, word := range words {
		if s.Known(word) {
			corrected = append(corrected, word)
			continue
		}
		if suggestions := s.Suggest(word); len(suggestions) > 0 {
			corrected = append(corrected, suggestions[0].Term)
			changed = true
			continue
		}
		corrected = append(corrected, word)
	}
	if !changed {
		return ""
	}
	return strings.Join(corrected, " ")
}
