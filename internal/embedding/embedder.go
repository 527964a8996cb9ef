// Package embedding provides text embedding via ONNX and caching.
package embedding

import (
	"context"
	"errors"
)

// ErrEmptyInput is returned when the text to embed is empty or whitespace-only.
var ErrEmptyInput = errors.New("empty input text")

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
