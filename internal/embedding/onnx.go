//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/ronbun/pkg/utils"
)

// ONNXEmbedder runs a sentence-transformer exported to ONNX. It requires CGO
// and the onnxruntime shared library at runtime.
//
// The session is created once with fixed input and output tensors; Embed
// rewrites the tensor data in place under a lock rather than allocating per
// call.
type ONNXEmbedder struct {
	session    *ort.AdvancedSession
	tensors    *tensorSet
	tokenizer  Tokenizer
	dimensions int
	maxTokens  int
	mu         sync.Mutex
}

// tensorSet owns the four pre-allocated tensors bound to a session.
type tensorSet struct {
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
}

func newTensorSet(maxTokens, dimensions int) (*tensorSet, error) {
	shape := ort.NewShape(1, int64(maxTokens))
	ts := &tensorSet{}
	var err error
	if ts.inputIDs, err = ort.NewTensor(shape, make([]int64, maxTokens)); err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	if ts.attentionMask, err = ort.NewTensor(shape, make([]int64, maxTokens)); err != nil {
		ts.destroy()
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	if ts.tokenTypeIDs, err = ort.NewTensor(shape, make([]int64, maxTokens)); err != nil {
		ts.destroy()
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	if ts.output, err = ort.NewTensor(ort.NewShape(1, int64(dimensions)), make([]float32, dimensions)); err != nil {
		ts.destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	return ts, nil
}

// destroy releases whichever tensors exist. Safe to call more than once.
func (ts *tensorSet) destroy() {
	if ts.inputIDs != nil {
		ts.inputIDs.Destroy()
		ts.inputIDs = nil
	}
	if ts.attentionMask != nil {
		ts.attentionMask.Destroy()
		ts.attentionMask = nil
	}
	if ts.tokenTypeIDs != nil {
		ts.tokenTypeIDs.Destroy()
		ts.tokenTypeIDs = nil
	}
	if ts.output != nil {
		ts.output.Destroy()
		ts.output = nil
	}
}

// NewONNXEmbedder loads the model at modelPath and prepares a reusable
// session. The ONNX environment is initialized if it is not already.
func NewONNXEmbedder(modelPath string, dimensions, maxTokens int) (*ONNXEmbedder, error) {
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
	}

	ts, err := newTensorSet(maxTokens, dimensions)
	if err != nil {
		return nil, err
	}
	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"output"},
		[]ort.ArbitraryTensor{ts.inputIDs, ts.attentionMask, ts.tokenTypeIDs},
		[]ort.ArbitraryTensor{ts.output},
		nil,
	)
	if err != nil {
		ts.destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNXEmbedder{
		session:    session,
		tensors:    ts,
		tokenizer:  &SimpleTokenizer{},
		dimensions: dimensions,
		maxTokens:  maxTokens,
	}, nil
}

// Embed tokenizes text, runs the session, and returns the normalized output
// vector.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	inputIDs, attentionMask, tokenTypeIDs := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.tensors.inputIDs.GetData(), inputIDs)
	copy(e.tensors.attentionMask.GetData(), attentionMask)
	copy(e.tensors.tokenTypeIDs.GetData(), tokenTypeIDs)

	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	emb := make([]float32, e.dimensions)
	copy(emb, e.tensors.output.GetData()[:e.dimensions])
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch embeds each text in order, failing on the first bad input.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
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
func (e *ONNXEmbedder) Dimensions() int { return e.dimensions }

// Close destroys the session and its tensors.
func (e *ONNXEmbedder) Close() error {
	var err error
	if e.session != nil {
		err = e.session.Destroy()
		e.session = nil
	}
	e.tensors.destroy()
	return err
}
