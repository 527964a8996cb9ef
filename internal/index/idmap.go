// Package index manages the paper similarity index: it owns the vector index,
// the internal-id to arXiv-id mapping, and their paired on-disk snapshots, and
// coordinates embedding, batch updates and searches behind one lock.
package index

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

const (
	idMapMagic         = "RBIM"
	idMapFormatVersion = uint8(1)

	// maxKeyLen bounds a header-declared key length; arXiv ids are far
	// shorter, so anything near the bound means a corrupt file.
	maxKeyLen = 1 << 10
)

// IDMap is the bijection between internal vector-index ids and arXiv ids.
// Internal ids are allocated from a monotonic counter and never reused, so a
// snapshot written after any sequence of adds and removes can always be
// reconciled with the vector index it accompanies.
type IDMap struct {
	nextID  int64
	forward map[int64]string
	inverse map[string]int64
}

// NewIDMap returns an empty mapping. Internal ids are positive: the first
// Allocate on a fresh mapping returns 1.
func NewIDMap() *IDMap {
	return &IDMap{
		nextID:  1,
		forward: make(map[int64]string),
		inverse: make(map[string]int64),
	}
}

// Allocate returns a fresh internal id and advances the counter. The id stays
// burned even if the caller rolls the insert back.
func (m *IDMap) Allocate() int64 {
	id := m.nextID
	m.nextID++
	return id
}

// NextID returns the value the next Allocate will hand out.
func (m *IDMap) NextID() int64 { return m.nextID }

// Put binds id and key in both directions. The caller must have removed any
// previous binding for either side.
func (m *IDMap) Put(id int64, key string) {
	m.forward[id] = key
	m.inverse[key] = id
	if id >= m.nextID {
		m.nextID = id + 1
	}
}

// IDForKey returns the internal id bound to key.
func (m *IDMap) IDForKey(key string) (int64, bool) {
	id, ok := m.inverse[key]
	return id, ok
}

// KeyForID returns the arXiv id bound to id.
func (m *IDMap) KeyForID(id int64) (string, bool) {
	key, ok := m.forward[id]
	return key, ok
}

// DeleteID removes the binding for id, if any.
func (m *IDMap) DeleteID(id int64) {
	if key, ok := m.forward[id]; ok {
		delete(m.inverse, key)
		delete(m.forward, id)
	}
}

// Len returns the number of bound pairs.
func (m *IDMap) Len() int { return len(m.forward) }

// Keys returns all bound arXiv ids in ascending internal-id order.
func (m *IDMap) Keys() []string {
	ids := make([]int64, 0, len(m.forward))
	for id := range m.forward {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = m.forward[id]
	}
	return keys
}

// WriteFile persists the mapping to path atomically: temp file in the same
// directory, synced, then renamed over path.
func (m *IDMap) WriteFile(path string) error {
	if path == "" {
		return fmt.Errorf("empty id map snapshot path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create id map dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".idmap-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp id map: %w", err)
	}
	tmpName := tmp.Name()
	if err := m.write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("sync id map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close id map: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename id map: %w", err)
	}
	return nil
}

func (m *IDMap) write(w io.Writer) error {
	if _, err := w.Write([]byte(idMapMagic)); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, idMapFormatVersion); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, m.nextID); err != nil {
		return fmt.Errorf("write counter: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.forward))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	ids := make([]int64, 0, len(m.forward))
	for id := range m.forward {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		key := m.forward[id]
		if err := binary.Write(w, binary.LittleEndian, id); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(key))); err != nil {
			return fmt.Errorf("write key length: %w", err)
		}
		if _, err := w.Write([]byte(key)); err != nil {
			return fmt.Errorf("write key: %w", err)
		}
	}
	return nil
}

// ReadIDMapFile loads a mapping snapshot from path.
func ReadIDMapFile(path string) (*IDMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open id map snapshot: %w", err)
	}
	defer f.Close()
	m, err := readIDMap(f)
	if err != nil {
		return nil, fmt.Errorf("read id map snapshot %s: %w", path, err)
	}
	return m, nil
}

func readIDMap(r io.Reader) (*IDMap, error) {
	magic := make([]byte, len(idMapMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(magic) != idMapMagic {
		return nil, fmt.Errorf("bad magic %q", magic)
	}
	var version uint8
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if version != idMapFormatVersion {
		return nil, fmt.Errorf("unsupported format version %d", version)
	}
	var nextID int64
	if err := binary.Read(r, binary.LittleEndian, &nextID); err != nil {
		return nil, fmt.Errorf("read counter: %w", err)
	}
	if nextID < 1 {
		return nil, fmt.Errorf("implausible counter %d", nextID)
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}

	m := NewIDMap()
	for i := uint32(0); i < count; i++ {
		var id int64
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return nil, fmt.Errorf("read id %d: %w", i, err)
		}
		if id < 1 {
			return nil, fmt.Errorf("implausible id %d", id)
		}
		var keyLen uint16
		if err := binary.Read(r, binary.LittleEndian, &keyLen); err != nil {
			return nil, fmt.Errorf("read key length %d: %w", i, err)
		}
		if keyLen == 0 || keyLen > maxKeyLen {
			return nil, fmt.Errorf("implausible key length %d", keyLen)
		}
		key := make([]byte, keyLen)
		if _, err := io.ReadFull(r, key); err != nil {
			return nil, fmt.Errorf("read key %d: %w", i, err)
		}
		if _, dup := m.forward[id]; dup {
			return nil, fmt.Errorf("duplicate id %d", id)
		}
		if _, dup := m.inverse[string(key)]; dup {
			return nil, fmt.Errorf("duplicate key %q", key)
		}
		m.forward[id] = string(key)
		m.inverse[string(key)] = id
	}
	// The counter must stay ahead of every live id even if the snapshot
	// carried a stale value.
	if m.nextID < nextID {
		m.nextID = nextID
	}
	for id := range m.forward {
		if id >= m.nextID {
			m.nextID = id + 1
		}
	}
	return m, nil
}
