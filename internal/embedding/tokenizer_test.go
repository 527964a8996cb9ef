package embedding

import (
	"strings"
	"testing"
)

func TestSimpleTokenizer_Tokenize(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, attn, types := tok.Tokenize("sparse attention for long documents", 16)
	if len(ids) != 16 || len(attn) != 16 || len(types) != 16 {
		t.Fatalf("lengths: %d, %d, %d, want 16 each", len(ids), len(attn), len(types))
	}
	if ids[0] != 101 {
		t.Errorf("expected CLS 101 first, got %d", ids[0])
	}
	// CLS, five words, then SEP.
	if ids[6] != 102 {
		t.Errorf("expected SEP 102 at position 6, got %d", ids[6])
	}
	for pos := 0; pos <= 6; pos++ {
		if attn[pos] != 1 {
			t.Errorf("attention[%d]: got %d, want 1", pos, attn[pos])
		}
	}
	for pos := 7; pos < 16; pos++ {
		if ids[pos] != 0 || attn[pos] != 0 {
			t.Errorf("padding at %d: ids=%d attn=%d, want zeros", pos, ids[pos], attn[pos])
		}
	}
}

func TestSimpleTokenizer_TruncatesLongAbstracts(t *testing.T) {
	tok := &SimpleTokenizer{}
	abstract := strings.Repeat("transformer ", 50)
	ids, attn, _ := tok.Tokenize(abstract, 8)
	if len(ids) != 8 {
		t.Fatalf("len(ids)=%d, want 8", len(ids))
	}
	if ids[7] != 102 {
		t.Errorf("truncated sequence should still end in SEP, got %d", ids[7])
	}
	for pos := 0; pos < 8; pos++ {
		if attn[pos] != 1 {
			t.Errorf("attention[%d]: got %d, want 1 (no padding when full)", pos, attn[pos])
		}
	}
}

func TestSimpleTokenizer_DefaultMaxTokens(t *testing.T) {
	tok := &SimpleTokenizer{}
	ids, _, _ := tok.Tokenize("diffusion models for audio synthesis", 0)
	if len(ids) != 256 {
		t.Errorf("len(ids)=%d, want the 256 default", len(ids))
	}
}

func TestSplitWords(t *testing.T) {
	words := SplitWords("We study sparse attention.\n\tQuadratic cost drops.")
	if len(words) != 7 {
		t.Errorf("expected 7 words, got %v", words)
	}
	if SplitWords("") != nil {
		t.Error("empty string should return nil")
	}
	if SplitWords("  \n\t ") != nil {
		t.Error("whitespace-only string should return nil")
	}
}

func TestHashString(t *testing.T) {
	h := HashString("attention")
	if h == 0 {
		t.Error("hash should be non-zero")
	}
	if h < 0 {
		t.Error("hash should be non-negative")
	}
	if HashString("attention") != HashString("attention") {
		t.Error("hash should be deterministic")
	}
	if HashString("encoder") == HashString("decoder") {
		t.Error("distinct words should hash apart")
	}
}

func TestTruncateAndJoinWords(t *testing.T) {
	words := SplitWords("we study sparse attention patterns in transformer encoders")
	got := JoinWords(TruncateWords(words, 4))
	if got != "we study sparse attention" {
		t.Errorf("got %q", got)
	}
	if len(TruncateWords(words, 100)) != len(words) {
		t.Error("truncation beyond length should keep all words")
	}
}
