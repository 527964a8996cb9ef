package vector

import (
	"fmt"
	"math"
	"sort"
)

// FlatIndex is the exact variant: a brute-force scan over all stored vectors.
// It is born trained and Train is a no-op.
type FlatIndex struct {
	dim  int
	ids  []int64
	vecs [][]float32
	pos  map[int64]int
}

// NewFlatIndex creates an empty exact index with the given dimension.
func NewFlatIndex(dim int) (*FlatIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	return &FlatIndex{
		dim: dim,
		pos: make(map[int64]int),
	}, nil
}

// Variant returns VariantFlat.
func (x *FlatIndex) Variant() Variant { return VariantFlat }

// Train is a no-op; the exact variant needs no training.
func (x *FlatIndex) Train(sample [][]float32) error { return nil }

// Trained always reports true.
func (x *FlatIndex) Trained() bool { return true }

// Add stores a copy of vec under id.
func (x *FlatIndex) Add(id int64, vec []float32) error {
	if len(vec) != x.dim {
		return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vec), x.dim)
	}
	if _, ok := x.pos[id]; ok {
		return fmt.Errorf("duplicate id %d", id)
	}
	cp := make([]float32, x.dim)
	copy(cp, vec)
	x.pos[id] = len(x.ids)
	x.ids = append(x.ids, id)
	x.vecs = append(x.vecs, cp)
	return nil
}

// Remove deletes the vector for id by moving the last entry into its slot.
func (x *FlatIndex) Remove(id int64) bool {
	i, ok := x.pos[id]
	if !ok {
		return false
	}
	last := len(x.ids) - 1
	if i != last {
		x.ids[i] = x.ids[last]
		x.vecs[i] = x.vecs[last]
		x.pos[x.ids[i]] = i
	}
	x.ids = x.ids[:last]
	x.vecs = x.vecs[:last]
	delete(x.pos, id)
	return true
}

// Reconstruct returns a copy of the vector stored under id.
func (x *FlatIndex) Reconstruct(id int64) ([]float32, bool) {
	i, ok := x.pos[id]
	if !ok {
		return nil, false
	}
	cp := make([]float32, x.dim)
	copy(cp, x.vecs[i])
	return cp, true
}

// Search scans every stored vector and returns up to min(k, Count()) hits
// ordered by ascending L2 distance, ties by ascending id.
func (x *FlatIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), x.dim)
	}
	if k <= 0 || len(x.ids) == 0 {
		return nil, nil
	}
	hits := make([]Neighbor, len(x.ids))
	for i, vec := range x.vecs {
		hits[i] = Neighbor{ID: x.ids[i], Distance: sqDist(query, vec)}
	}
	sortNeighbors(hits)
	if k > len(hits) {
		k = len(hits)
	}
	hits = hits[:k]
	for i := range hits {
		hits[i].Distance = math.Sqrt(hits[i].Distance)
	}
	return hits, nil
}

// IDs returns the stored ids in ascending order.
func (x *FlatIndex) IDs() []int64 {
	ids := make([]int64, len(x.ids))
	copy(ids, x.ids)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of stored vectors.
func (x *FlatIndex) Count() int { return len(x.ids) }

// Dim returns the vector dimension.
func (x *FlatIndex) Dim() int { return x.dim }

// sortNeighbors orders by ascending distance, ties by ascending id.
func sortNeighbors(hits []Neighbor) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID < hits[j].ID
	})
}
