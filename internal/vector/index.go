// Package vector provides the similarity-search structures behind the paper
// index: an exact brute-force variant and a clustered (inverted-file) variant
// with a k-means training phase, plus a binary snapshot codec.
//
// Index implementations are plain data structures with no internal locking;
// the index manager is their single concurrent entry point and serializes
// mutation against searches.
package vector

import "errors"

// Variant identifies a similarity-search structure.
type Variant string

const (
	// VariantFlat is exact brute-force search. Always trained.
	VariantFlat Variant = "flat"
	// VariantIVF is clustered approximate search. Requires training before any Add.
	VariantIVF Variant = "ivf"
)

var (
	// ErrNotTrained is returned by Add on a clustered index that has not been trained.
	ErrNotTrained = errors.New("vector index not trained")
	// ErrInsufficientTrainingData is returned by Train when the sample is
	// smaller than the configured cluster count.
	ErrInsufficientTrainingData = errors.New("training sample smaller than cluster count")
)

// Neighbor is a single search hit. Distance is L2 (smaller = more similar).
type Neighbor struct {
	ID       int64
	Distance float64
}

// Index defines vector storage and nearest-neighbor search over caller-assigned ids.
type Index interface {
	// Variant reports which search structure this is.
	Variant() Variant
	// Train prepares the index for inserts. No-op when already trained.
	Train(sample [][]float32) error
	// Trained reports whether Add may be called.
	Trained() bool
	// Add stores a copy of vec under id. Ids must be unique; the caller
	// (the index manager) enforces uniqueness by removing before re-adding.
	Add(id int64, vec []float32) error
	// Remove deletes the vector stored under id, reporting whether it existed.
	Remove(id int64) bool
	// Reconstruct returns a copy of the vector stored under id.
	Reconstruct(id int64) ([]float32, bool)
	// Search returns up to min(k, Count()) neighbors of query ordered by
	// ascending L2 distance; ties are broken by ascending id.
	Search(query []float32, k int) ([]Neighbor, error)
	// IDs returns the stored ids in ascending order.
	IDs() []int64
	// Count returns the number of stored vectors.
	Count() int
	// Dim returns the vector dimension.
	Dim() int
}
