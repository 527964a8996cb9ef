package vector

import "fmt"

// NewIndex creates an index of the given variant. Supported: "flat"
// (default when empty) and "ivf". nlist and nprobe apply to ivf only.
func NewIndex(variant string, dim, nlist, nprobe int) (Index, error) {
	switch Variant(variant) {
	case VariantFlat, "":
		return NewFlatIndex(dim)
	case VariantIVF:
		return NewIVFIndex(dim, nlist, nprobe)
	default:
		return nil, fmt.Errorf("unknown index variant: %s (supported: flat, ivf)", variant)
	}
}
