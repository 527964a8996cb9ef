package embedding

import (
	"context"
	"hash/fnv"
	"strings"

	"github.com/hyperjump/ronbun/pkg/utils"
)

// MockEmbedder derives a unit vector from a hash of the input text, so the
// same text always embeds to the same point. It stands in for the ONNX model
// in tests and on machines without the runtime library.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns a deterministic embedder of the given
// dimensionality. Non-positive values fall back to 384, the dimensionality of
// the default ONNX model.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns the unit vector seeded by the text's hash.
func (e *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	h := fnv.New64a()
	h.Write([]byte(text))
	state := h.Sum64()

	emb := make([]float32, e.dimensions)
	for i := range emb {
		emb[i] = mixToUnitInterval(&state)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// mixToUnitInterval advances a splitmix64 state and folds the output into
// [-1, 1).
func mixToUnitInterval(state *uint64) float32 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	z ^= z >> 31
	return float32(z>>40)/float32(1<<23) - 1
}

// EmbedBatch embeds each text in order, failing on the first bad input.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = emb
	}
	return out, nil
}

// Dimensions returns the embedding dimensionality.
func (e *MockEmbedder) Dimensions() int { return e.dimensions }

// Close is a no-op; there is no model to release.
func (e *MockEmbedder) Close() error { return nil }
