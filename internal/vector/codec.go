// Snapshot codec: self-describing binary persistence for index variants.
package vector

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

const (
	indexMagic         = "RBIX"
	indexFormatVersion = uint8(1)

	variantByteFlat = uint8(1)
	variantByteIVF  = uint8(2)

	flagZstd = uint8(1 << 0)

	// maxSnapshotDim bounds header-declared sizes so a corrupt file cannot
	// drive huge allocations before the payload read fails.
	maxSnapshotDim = 1 << 20
)

// WriteIndexFile persists idx to path atomically: the snapshot is written to
// a temp file in the same directory, synced, then renamed over path.
func WriteIndexFile(idx Index, path string, compress bool) error {
	if path == "" {
		return fmt.Errorf("empty index snapshot path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if err := WriteIndex(tmp, idx, compress); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

// ReadIndexFile loads an index snapshot from path. The variant and dimension
// come from the file itself. Missing-file errors are returned unwrapped
// enough for callers to test with os.IsNotExist via errors.Is.
func ReadIndexFile(path string) (Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index snapshot: %w", err)
	}
	defer f.Close()
	idx, err := ReadIndex(f)
	if err != nil {
		return nil, fmt.Errorf("read index snapshot %s: %w", path, err)
	}
	return idx, nil
}

// WriteIndex encodes idx to w: a fixed header (magic, version, variant,
// flags, dimension) followed by the payload, zstd-compressed when compress
// is set.
func WriteIndex(w io.Writer, idx Index, compress bool) error {
	var variant uint8
	switch idx.(type) {
	case *FlatIndex:
		variant = variantByteFlat
	case *IVFIndex:
		variant = variantByteIVF
	default:
		return fmt.Errorf("unsupported index type %T", idx)
	}
	if _, err := w.Write([]byte(indexMagic)); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	var flags uint8
	if compress {
		flags |= flagZstd
	}
	for _, v := range []uint8{indexFormatVersion, variant, flags} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(idx.Dim())); err != nil {
		return fmt.Errorf("write dimension: %w", err)
	}

	payload := w
	var zw *zstd.Encoder
	if compress {
		var err error
		zw, err = zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("init zstd writer: %w", err)
		}
		payload = zw
	}
	var err error
	switch v := idx.(type) {
	case *FlatIndex:
		err = writeFlatPayload(payload, v)
	case *IVFIndex:
		err = writeIVFPayload(payload, v)
	}
	if err != nil {
		if zw != nil {
			zw.Close()
		}
		return err
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			return fmt.Errorf("flush zstd payload: %w", err)
		}
	}
	return nil
}

// ReadIndex decodes an index snapshot from r.
func ReadIndex(r io.Reader) (Index, error) {
	magic := make([]byte, len(indexMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if !bytes.Equal(magic, []byte(indexMagic)) {
		return nil, fmt.Errorf("bad magic %q", magic)
	}
	var version, variant, flags uint8
	for _, p := range []*uint8{&version, &variant, &flags} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
	}
	if version != indexFormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", version)
	}
	var dim uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimension: %w", err)
	}
	if dim == 0 || dim > maxSnapshotDim {
		return nil, fmt.Errorf("implausible dimension %d", dim)
	}

	payload := r
	if flags&flagZstd != 0 {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("init zstd reader: %w", err)
		}
		defer zr.Close()
		payload = zr
	}
	switch variant {
	case variantByteFlat:
		return readFlatPayload(payload, int(dim))
	case variantByteIVF:
		return readIVFPayload(payload, int(dim))
	default:
		return nil, fmt.Errorf("unknown index variant %d", variant)
	}
}

// Flat payload: count, then per entry id (int64) + vector (dim float32).
func writeFlatPayload(w io.Writer, x *FlatIndex) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(x.ids))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for i, id := range x.ids {
		if err := binary.Write(w, binary.LittleEndian, id); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if _, err := w.Write(float32SliceToBytes(x.vecs[i])); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

func readFlatPayload(r io.Reader, dim int) (*FlatIndex, error) {
	x, err := NewFlatIndex(dim)
	if err != nil {
		return nil, err
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	buf := make([]byte, dim*4)
	for i := uint32(0); i < count; i++ {
		var id int64
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, fmt.Errorf("read id: %w", err)
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read vector: %w", err)
		}
		if err := x.Add(id, bytesToFloat32Slice(buf)); err != nil {
			return nil, err
		}
	}
	return x, nil
}

// IVF payload: trained flag, nlist, nprobe, centroids (when trained), count,
// then per entry posting-list index (uint32) + id + vector.
func writeIVFPayload(w io.Writer, x *IVFIndex) error {
	trained := uint8(0)
	if x.trained {
		trained = 1
	}
	if err := binary.Write(w, binary.LittleEndian, trained); err != nil {
		return fmt.Errorf("write trained flag: %w", err)
	}
	for _, v := range []uint32{uint32(x.nlist), uint32(x.nprobe)} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("write ivf header: %w", err)
		}
	}
	if !x.trained {
		return nil
	}
	if _, err := w.Write(float32SliceToBytes(x.centroids)); err != nil {
		return fmt.Errorf("write centroids: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(x.count)); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for li, list := range x.lists {
		for _, e := range list {
			if err := binary.Write(w, binary.LittleEndian, uint32(li)); err != nil {
				return fmt.Errorf("write list index: %w", err)
			}
			if err := binary.Write(w, binary.LittleEndian, e.id); err != nil {
				return fmt.Errorf("write id: %w", err)
			}
			if _, err := w.Write(float32SliceToBytes(e.vec)); err != nil {
				return fmt.Errorf("write vector: %w", err)
			}
		}
	}
	return nil
}

func readIVFPayload(r io.Reader, dim int) (*IVFIndex, error) {
	var trained uint8
	if err := binary.Read(r, binary.LittleEndian, &trained); err != nil {
		return nil, fmt.Errorf("read trained flag: %w", err)
	}
	var nlist, nprobe uint32
	for _, p := range []*uint32{&nlist, &nprobe} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return nil, fmt.Errorf("read ivf header: %w", err)
		}
	}
	if nlist == 0 || nlist > maxSnapshotDim {
		return nil, fmt.Errorf("implausible cluster count %d", nlist)
	}
	x, err := NewIVFIndex(dim, int(nlist), int(nprobe))
	if err != nil {
		return nil, err
	}
	if trained == 0 {
		return x, nil
	}
	cbuf := make([]byte, int(nlist)*dim*4)
	if _, err := io.ReadFull(r, cbuf); err != nil {
		return nil, fmt.Errorf("read centroids: %w", err)
	}
	x.centroids = bytesToFloat32Slice(cbuf)
	x.lists = make([][]ivfEntry, nlist)
	x.trained = true

	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}
	vbuf := make([]byte, dim*4)
	for i := uint32(0); i < count; i++ {
		var li uint32
		if err := binary.Read(r, binary.LittleEndian, &li); err != nil {
			return nil, fmt.Errorf("read list index: %w", err)
		}
		if li >= nlist {
			return nil, fmt.Errorf("list index %d out of range (%d lists)", li, nlist)
		}
		var id int64
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, fmt.Errorf("read id: %w", err)
		}
		if _, err := io.ReadFull(r, vbuf); err != nil {
			return nil, fmt.Errorf("read vector: %w", err)
		}
		if _, ok := x.loc[id]; ok {
			return nil, fmt.Errorf("duplicate id %d in snapshot", id)
		}
		x.loc[id] = listPos{list: int(li), idx: len(x.lists[li])}
		x.lists[li] = append(x.lists[li], ivfEntry{id: id, vec: bytesToFloat32Slice(vbuf)})
		x.count++
	}
	return x, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
