package vector

import (
	"math"
	"testing"
)

func TestFlatIndex_SearchOrdersByDistance(t *testing.T) {
	x, err := NewFlatIndex(2)
	if err != nil {
		t.Fatal(err)
	}
	// A=[0,0] B=[1,0] C=[5,5]
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
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].ID != 1 || hits[1].ID != 2 {
		t.Errorf("got ids %d,%d, want 1,2", hits[0].ID, hits[1].ID)
	}
	if hits[0].Distance != 0 {
		t.Errorf("nearest distance = %v, want 0", hits[0].Distance)
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
	if math.Abs(hits[1].Distance-math.Sqrt(50)) > 1e-6 {
		t.Errorf("distance to [5,5] = %v, want sqrt(50)", hits[1].Distance)
	}
}

func TestFlatIndex_SearchBounds(t *testing.T) {
	x, _ := NewFlatIndex(2)

	hits, err := x.Search([]float32{0, 0}, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("empty index returned %d hits", len(hits))
	}

	for id := int64(1); id <= 3; id++ {
		if err := x.Add(id, []float32{float32(id), 0}); err != nil {
			t.Fatal(err)
		}
	}

	hits, err = x.Search([]float32{0, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 3 {
		t.Errorf("k beyond count: got %d hits, want 3", len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Distance < hits[i-1].Distance {
			t.Errorf("hits not sorted: %v", hits)
		}
	}

	hits, err = x.Search([]float32{0, 0}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("k=0 returned %d hits", len(hits))
	}
}

func TestFlatIndex_TieBreakByID(t *testing.T) {
	x, _ := NewFlatIndex(2)
	// Two vectors equidistant from the query.
	if err := x.Add(7, []float32{1, 0}); err != nil {
		t.Fatal(err)
	}
	if err := x.Add(3, []float32{-1, 0}); err != nil {
		t.Fatal(err)
	}
	hits, err := x.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if hits[0].ID != 3 || hits[1].ID != 7 {
		t.Errorf("tie-break order: got %d,%d, want 3,7", hits[0].ID, hits[1].ID)
	}
}

func TestFlatIndex_Errors(t *testing.T) {
	x, _ := NewFlatIndex(2)
	if err := x.Add(1, []float32{1}); err == nil {
		t.Error("expected dimension mismatch error on Add")
	}
	if _, err := x.Search([]float32{1, 2, 3}, 1); err == nil {
		t.Error("expected dimension mismatch error on Search")
	}
	if err := x.Add(1, []float32{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := x.Add(1, []float32{3, 4}); err == nil {
		t.Error("expected duplicate id error")
	}
	if _, err := NewFlatIndex(0); err == nil {
		t.Error("expected error for zero dimension")
	}
}

func TestFlatIndex_RemoveKeepsPositions(t *testing.T) {
	x, _ := NewFlatIndex(2)
	vecs := map[int64][]float32{
		1: {1, 1},
		2: {2, 2},
		3: {3, 3},
		4: {4, 4},
	}
	for id, v := range vecs {
		if err := x.Add(id, v); err != nil {
			t.Fatal(err)
		}
	}
	if x.Remove(9) {
		t.Error("Remove of absent id returned true")
	}
	if !x.Remove(2) {
		t.Fatal("Remove(2) = false")
	}
	if x.Count() != 3 {
		t.Fatalf("Count = %d, want 3", x.Count())
	}
	for _, id := range []int64{1, 3, 4} {
		got, ok := x.Reconstruct(id)
		if !ok {
			t.Fatalf("Reconstruct(%d) missing after unrelated remove", id)
		}
		want := vecs[id]
		if got[0] != want[0] || got[1] != want[1] {
			t.Errorf("Reconstruct(%d) = %v, want %v", id, got, want)
		}
	}
	if _, ok := x.Reconstruct(2); ok {
		t.Error("Reconstruct(2) found after remove")
	}
}

func TestFlatIndex_ReconstructReturnsCopy(t *testing.T) {
	x, _ := NewFlatIndex(2)
	if err := x.Add(1, []float32{1, 2}); err != nil {
		t.Fatal(err)
	}
	got, _ := x.Reconstruct(1)
	got[0] = 99
	again, _ := x.Reconstruct(1)
	if again[0] != 1 {
		t.Error("Reconstruct leaked internal storage")
	}
}

func TestL2Distance(t *testing.T) {
	d, err := L2Distance([]float32{0, 0}, []float32{3, 4})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(d-5) > 1e-9 {
		t.Errorf("L2Distance = %v, want 5", d)
	}
	if _, err := L2Distance([]float32{1}, []float32{1, 2}); err == nil {
		t.Error("expected dimension mismatch error")
	}
}
