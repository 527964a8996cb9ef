package vector

import (
	"fmt"
	"math"
	"sort"
)

// ivfEntry is one stored vector inside a posting list.
type ivfEntry struct {
	id  int64
	vec []float32
}

// listPos locates an entry: posting list index and offset within it.
type listPos struct {
	list int
	idx  int
}

// IVFIndex is the clustered variant: vectors are partitioned into posting
// lists by nearest trained centroid, and Search scans only the nprobe
// closest lists. Approximation comes from scanning a subset; distances
// within the scanned subset are exact L2.
type IVFIndex struct {
	dim       int
	nlist     int
	nprobe    int
	trained   bool
	centroids []float32 // nlist*dim, set by Train
	lists     [][]ivfEntry
	loc       map[int64]listPos
	count     int
}

// NewIVFIndex creates an untrained clustered index. nlist is the cluster
// count the training sample must cover; nprobe is the number of clusters
// scanned per search (clamped to nlist).
func NewIVFIndex(dim, nlist, nprobe int) (*IVFIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dim)
	}
	if nlist <= 0 {
		return nil, fmt.Errorf("cluster count must be positive, got %d", nlist)
	}
	if nprobe <= 0 {
		nprobe = 1
	}
	return &IVFIndex{
		dim:    dim,
		nlist:  nlist,
		nprobe: nprobe,
		loc:    make(map[int64]listPos),
	}, nil
}

// Variant returns VariantIVF.
func (x *IVFIndex) Variant() Variant { return VariantIVF }

// Trained reports whether centroids have been trained.
func (x *IVFIndex) Trained() bool { return x.trained }

// Train clusters the sample into nlist centroids. No-op when already
// trained. Fails with ErrInsufficientTrainingData when the sample is
// smaller than the cluster count; callers wanting to proceed anyway use
// TrainClamped under an explicit degraded-training policy.
func (x *IVFIndex) Train(sample [][]float32) error {
	if x.trained {
		return nil
	}
	if len(sample) < x.nlist {
		return fmt.Errorf("%w: %d vectors for %d clusters", ErrInsufficientTrainingData, len(sample), x.nlist)
	}
	return x.train(sample, x.nlist)
}

// TrainClamped trains with the cluster count reduced to the sample size when
// the sample is too small, returning the cluster count actually used. The
// sample must be non-empty.
func (x *IVFIndex) TrainClamped(sample [][]float32) (int, error) {
	if x.trained {
		return x.nlist, nil
	}
	if len(sample) == 0 {
		return 0, fmt.Errorf("%w: empty sample", ErrInsufficientTrainingData)
	}
	k := x.nlist
	if len(sample) < k {
		k = len(sample)
	}
	if err := x.train(sample, k); err != nil {
		return 0, err
	}
	return k, nil
}

func (x *IVFIndex) train(sample [][]float32, k int) error {
	flat := make([]float32, 0, len(sample)*x.dim)
	for i, vec := range sample {
		if len(vec) != x.dim {
			return fmt.Errorf("training vector %d dimension mismatch: got %d, expected %d", i, len(vec), x.dim)
		}
		flat = append(flat, vec...)
	}
	x.centroids = trainKMeans(flat, x.dim, k)
	x.nlist = k
	x.lists = make([][]ivfEntry, k)
	x.trained = true
	return nil
}

// Add stores a copy of vec in the posting list of its nearest centroid.
func (x *IVFIndex) Add(id int64, vec []float32) error {
	if !x.trained {
		return ErrNotTrained
	}
	if len(vec) != x.dim {
		return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(vec), x.dim)
	}
	if _, ok := x.loc[id]; ok {
		return fmt.Errorf("duplicate id %d", id)
	}
	cp := make([]float32, x.dim)
	copy(cp, vec)
	list := nearestCentroid(cp, x.centroids, x.dim)
	x.loc[id] = listPos{list: list, idx: len(x.lists[list])}
	x.lists[list] = append(x.lists[list], ivfEntry{id: id, vec: cp})
	x.count++
	return nil
}

// Remove deletes the entry for id by moving its list's last entry into the hole.
func (x *IVFIndex) Remove(id int64) bool {
	p, ok := x.loc[id]
	if !ok {
		return false
	}
	list := x.lists[p.list]
	last := len(list) - 1
	if p.idx != last {
		list[p.idx] = list[last]
		x.loc[list[p.idx].id] = listPos{list: p.list, idx: p.idx}
	}
	x.lists[p.list] = list[:last]
	delete(x.loc, id)
	x.count--
	return true
}

// Reconstruct returns a copy of the vector stored under id.
func (x *IVFIndex) Reconstruct(id int64) ([]float32, bool) {
	p, ok := x.loc[id]
	if !ok {
		return nil, false
	}
	cp := make([]float32, x.dim)
	copy(cp, x.lists[p.list][p.idx].vec)
	return cp, true
}

// Search scans the nprobe posting lists nearest to query and returns up to
// min(k, candidates) hits ordered by ascending L2 distance, ties by
// ascending id. An untrained or empty index yields no hits.
func (x *IVFIndex) Search(query []float32, k int) ([]Neighbor, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), x.dim)
	}
	if !x.trained || x.count == 0 || k <= 0 {
		return nil, nil
	}
	probe := x.nprobe
	if probe > x.nlist {
		probe = x.nlist
	}
	var hits []Neighbor
	for _, li := range closestCentroids(query, x.centroids, x.dim, probe) {
		for _, e := range x.lists[li] {
			hits = append(hits, Neighbor{ID: e.id, Distance: sqDist(query, e.vec)})
		}
	}
	if len(hits) == 0 {
		return nil, nil
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
func (x *IVFIndex) IDs() []int64 {
	ids := make([]int64, 0, len(x.loc))
	for id := range x.loc {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Count returns the number of stored vectors.
func (x *IVFIndex) Count() int { return x.count }

// Dim returns the vector dimension.
func (x *IVFIndex) Dim() int { return x.dim }

// NProbe returns the configured probe width.
func (x *IVFIndex) NProbe() int { return x.nprobe }

// NList returns the effective cluster count (post-training it may be smaller
// than configured if training was clamped).
func (x *IVFIndex) NList() int { return x.nlist }
