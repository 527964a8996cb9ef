package embedding

import (
	"hash/fnv"
	"strings"
	"unicode"
)

const (
	clsToken         = 101
	sepToken         = 102
	vocabSize        = 30000
	defaultMaxTokens = 256
)

// Tokenizer produces the model inputs for BERT-style models: input_ids,
// attention_mask, and token_type_ids, all padded to the same length.
type Tokenizer interface {
	Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64)
}

// SimpleTokenizer assigns hashed token ids per whitespace-separated word. It
// carries no vocabulary file; retrieval only needs the ids to be stable.
type SimpleTokenizer struct{}

// Tokenize wraps the text's words in [CLS] and [SEP] markers and pads the
// three id slices out to maxTokens.
func (t *SimpleTokenizer) Tokenize(text string, maxTokens int) (inputIDs, attentionMask, tokenTypeIDs []int64) {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	inputIDs = make([]int64, maxTokens)
	attentionMask = make([]int64, maxTokens)
	tokenTypeIDs = make([]int64, maxTokens)

	words := SplitWords(text)
	keep := maxTokens - 2
	if keep < 0 {
		keep = 0
	}
	if len(words) > keep {
		words = words[:keep]
	}

	inputIDs[0] = clsToken
	n := 1
	for _, w := range words {
		inputIDs[n] = int64(HashString(w) % vocabSize)
		n++
	}
	if n < maxTokens {
		inputIDs[n] = sepToken
		n++
	}
	for i := 0; i < n; i++ {
		attentionMask[i] = 1
	}
	return inputIDs, attentionMask, tokenTypeIDs
}

// SplitWords breaks text on whitespace. It returns nil when text holds no
// words at all.
func SplitWords(text string) []string {
	words := strings.FieldsFunc(text, unicode.IsSpace)
	if len(words) == 0 {
		return nil
	}
	return words
}

// HashString maps a word to a stable non-negative id.
func HashString(s string) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() & 0x7fffffff)
}

// TruncateWords caps the slice at maxWords.
func TruncateWords(words []string, maxWords int) []string {
	if maxWords < len(words) {
		return words[:maxWords]
	}
	return words
}

// JoinWords reassembles words into a single space-separated string.
func JoinWords(words []string) string {
	return strings.Join(words, " ")
}
