package vector

import (
	"fmt"
	"math"
)

// L2Distance returns the Euclidean distance between a and b.
func L2Distance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d vs %d", len(a), len(b))
	}
	return math.Sqrt(sqDist(a, b)), nil
}

// sqDist returns the squared L2 distance. Callers validate dimensions.
func sqDist(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i] - b[i])
		sum += d * d
	}
	return sum
}

// sqDistFlat returns the squared L2 distance between vec and the i-th vector
// in a flattened (row-major) slice of dim-sized vectors.
func sqDistFlat(vec []float32, flat []float32, i, dim int) float64 {
	return sqDist(vec, flat[i*dim:(i+1)*dim])
}
