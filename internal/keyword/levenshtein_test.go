package keyword

import "testing"

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected int
	}{
		{"identical empty", "", "", 0},
		{"identical word", "attention", "attention", 0},
		{"empty a", "", "graph", 5},
		{"empty b", "graph", "", 5},

		{"one substitution", "cat", "bat", 1},
		{"one insertion", "cat", "cart", 1},
		{"one deletion", "cart", "cat", 1},

		{"kitten to sitting", "kitten", "sitting", 3},
		{"saturday to sunday", "saturday", "sunday", 3},

		// Typos a paper query actually sees
		{"tranformer", "tranformer", "transformer", 1},
		{"difussion", "difussion", "diffusion", 2},
		{"bayesain", "bayesain", "bayesian", 2},
		{"lerning", "lerning", "learning", 1},

		{"case difference", "Hello", "hello", 1},
		{"unicode substitution", "café", "cafe", 1},
		{"unicode insertion", "naïve", "naive", 1},

		// Plain Levenshtein counts a swap as two edits
		{"transposition ab-ba", "ab", "ba", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := LevenshteinDistance(tt.a, tt.b)
			if result != tt.expected {
				t.Errorf("LevenshteinDistance(%q, %q) = %d, want %d", tt.a, tt.b, result, tt.expected)
			}
			reverse := LevenshteinDistance(tt.b, tt.a)
			if result != reverse {
				t.Errorf("not symmetric: (%q,%q)=%d, (%q,%q)=%d",
					tt.a, tt.b, result, tt.b, tt.a, reverse)
			}
		})
	}
}

func BenchmarkLevenshteinDistance_Short(b *testing.B) {
	for i := 0; i < b.N; i++ {
		LevenshteinDistance("kitten", "sitting")
	}
}

func BenchmarkLevenshteinDistance_Long(b *testing.B) {
	strA := "stochastic gradient descent converges under mild assumptions"
	strB := "stochastic gradient descnet converges under mild assumtpions"
	for i := 0; i < b.N; i++ {
		LevenshteinDistance(strA, strB)
	}
}
