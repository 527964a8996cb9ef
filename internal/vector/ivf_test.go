package vector

import (
	"errors"
	"math"
	"testing"
)

// trainedIVF returns an IVF index trained on a spread of sample vectors.
func trainedIVF(t *testing.T, dim, nlist, nprobe, samples int) *IVFIndex {
	t.Helper()
	x, err := NewIVFIndex(dim, nlist, nprobe)
	if err != nil {
		t.Fatal(err)
	}
	sample := make([][]float32, samples)
	for i := range sample {
		vec := make([]float32, dim)
		for d := range vec {
			vec[d] = float32(i*dim+d) * 0.1
		}
		sample[i] = vec
	}
	if err := x.Train(sample); err != nil {
		t.Fatal(err)
	}
	return x
}

func TestIVFIndex_AddRequiresTraining(t *testing.T) {
	x, err := NewIVFIndex(2, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if x.Trained() {
		t.Fatal("new ivf index reports trained")
	}
	if err := x.Add(1, []float32{1, 2}); !errors.Is(err, ErrNotTrained) {
		t.Errorf("Add before train: err = %v, want ErrNotTrained", err)
	}
}

func TestIVFIndex_InsufficientTrainingData(t *testing.T) {
	x, _ := NewIVFIndex(2, 10, 2)
	sample := [][]float32{{0, 0}, {1, 1}, {2, 2}}
	if err := x.Train(sample); !errors.Is(err, ErrInsufficientTrainingData) {
		t.Fatalf("Train with 3 vectors for 10 clusters: err = %v", err)
	}
	if x.Trained() {
		t.Error("failed Train left index trained")
	}

	k, err := x.TrainClamped(sample)
	if err != nil {
		t.Fatalf("TrainClamped: %v", err)
	}
	if k != 3 {
		t.Errorf("TrainClamped used %d clusters, want 3", k)
	}
	if !x.Trained() || x.NList() != 3 {
		t.Errorf("after clamped training: trained=%v nlist=%d", x.Trained(), x.NList())
	}
}

func TestIVFIndex_TrainClampedEmptySample(t *testing.T) {
	x, _ := NewIVFIndex(2, 4, 1)
	if _, err := x.TrainClamped(nil); !errors.Is(err, ErrInsufficientTrainingData) {
		t.Errorf("TrainClamped(nil): err = %v", err)
	}
}

func TestIVFIndex_TrainIdempotent(t *testing.T) {
	x := trainedIVF(t, 2, 2, 2, 8)
	if err := x.Train([][]float32{{0, 0}}); err != nil {
		t.Errorf("second Train returned %v, want no-op nil", err)
	}
}

func TestIVFIndex_SearchExhaustiveProbe(t *testing.T) {
	// nprobe == nlist scans everything, so results match exact search.
	x := trainedIVF(t, 2, 2, 2, 8)
	if err := x.Add(1, []float32{0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := x.Add(2, []float32{1, 0}); err != nil {
		t.Fatal(err)
	}
	if err := x.Add(3, []float32{5, 5}); err != nil {
		t.Fatal(err)
	}

	hits, err := x.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].ID != 1 || hits[1].ID != 2 {
		t.Fatalf("got %+v, want ids 1,2", hits)
	}
	if math.Abs(hits[1].Distance-1) > 1e-6 {
		t.Errorf("second distance = %v, want 1", hits[1].Distance)
	}

	if !x.Remove(2) {
		t.Fatal("Remove(2) = false")
	}
	hits, err = x.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].ID != 1 || hits[1].ID != 3 {
		t.Fatalf("after remove got %+v, want ids 1,3", hits)
	}
}

func TestIVFIndex_SearchUntrainedIsEmpty(t *testing.T) {
	x, _ := NewIVFIndex(2, 4, 1)
	hits, err := x.Search([]float32{0, 0}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("untrained search returned %d hits", len(hits))
	}
}

func TestIVFIndex_NarrowProbeFindsOwnList(t *testing.T) {
	// A stored vector is always found when the query equals it, because the
	// query probes the same list the vector was assigned to.
	x := trainedIVF(t, 2, 4, 1, 16)
	probe := []float32{0.7, 0.9}
	if err := x.Add(42, probe); err != nil {
		t.Fatal(err)
	}
	for id := int64(1); id <= 5; id++ {
		if err := x.Add(id, []float32{float32(id), float32(id) * 2}); err != nil {
			t.Fatal(err)
		}
	}
	hits, err := x.Search(probe, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != 42 {
		t.Fatalf("got %+v, want id 42", hits)
	}
	if hits[0].Distance > 1e-6 {
		t.Errorf("distance to own vector = %v", hits[0].Distance)
	}
}

func TestIVFIndex_RemoveKeepsOtherEntries(t *testing.T) {
	x := trainedIVF(t, 2, 2, 2, 8)
	vecs := map[int64][]float32{
		1: {0.1, 0.1},
		2: {0.2, 0.2},
		3: {0.3, 0.3},
		4: {4, 4},
	}
	for id, v := range vecs {
		if err := x.Add(id, v); err != nil {
			t.Fatal(err)
		}
	}
	if !x.Remove(1) {
		t.Fatal("Remove(1) = false")
	}
	if x.Remove(1) {
		t.Error("second Remove(1) returned true")
	}
	if x.Count() != 3 {
		t.Fatalf("Count = %d, want 3", x.Count())
	}
	for _, id := range []int64{2, 3, 4} {
		got, ok := x.Reconstruct(id)
		if !ok {
			t.Fatalf("Reconstruct(%d) missing", id)
		}
		want := vecs[id]
		if got[0] != want[0] || got[1] != want[1] {
			t.Errorf("Reconstruct(%d) = %v, want %v", id, got, want)
		}
	}
}

func TestIVFIndex_DuplicateID(t *testing.T) {
	x := trainedIVF(t, 2, 2, 2, 8)
	if err := x.Add(1, []float32{1, 1}); err != nil {
		t.Fatal(err)
	}
	if err := x.Add(1, []float32{2, 2}); err == nil {
		t.Error("expected duplicate id error")
	}
}
