package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// fileMagic tags files written by MemoryIndex.Save.
const fileMagic = uint32(0x44465956) // "DFYV"

// MemoryIndex is an in-memory vector index using brute-force inner product search.
// Vectors are expected to be L2-normalized so the inner product is the cosine similarity.
type MemoryIndex struct {
	dimensions int
	mu         sync.RWMutex
	ids        []string
	vectors    [][]float32
	pos        map[string]int
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{dimensions: dimensions, pos: make(map[string]int)}, nil
}

// Dimensions returns the vector dimension of the index.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Add stores vectors under ids. An id already present keeps its slot and
// has its vector overwritten. The batch is rejected as a whole on a
// dimension mismatch.
func (m *MemoryIndex) Add(ctx context.Context, ids []string, vectors [][]float32) error {
	if len(ids) != len(vectors) {
		return fmt.Errorf("ids and vectors length mismatch")
	}
	for _, v := range vectors {
		if len(v) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(v), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		vec := append([]float32(nil), vectors[i]...)
		if p, ok := m.pos[id]; ok {
			m.vectors[p] = vec
			continue
		}
		m.pos[id] = len(m.ids)
		m.ids = append(m.ids, id)
		m.vectors = append(m.vectors, vec)
	}
	return nil
}

// Search returns the top-k vectors by inner product among entries accepted by
// filter, best first. Ties keep insertion order.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, k int, filter Filter) ([]*VectorResult, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	hits := make([]*VectorResult, 0, len(m.ids))
	for i, id := range m.ids {
		if filter != nil && !filter(id) {
			continue
		}
		hits = append(hits, &VectorResult{ID: id, Score: InnerProduct(query, m.vectors[i])})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Remove deletes vectors by ID. Unknown IDs are ignored.
func (m *MemoryIndex) Remove(ctx context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := false
	for _, id := range ids {
		if _, ok := m.pos[id]; ok {
			delete(m.pos, id)
			drop = true
		}
	}
	if !drop {
		return nil
	}
	keptIDs := m.ids[:0]
	keptVecs := m.vectors[:0]
	for i, id := range m.ids {
		if _, ok := m.pos[id]; !ok {
			continue
		}
		m.pos[id] = len(keptIDs)
		keptIDs = append(keptIDs, id)
		keptVecs = append(keptVecs, m.vectors[i])
	}
	m.ids, m.vectors = keptIDs, keptVecs
	return nil
}

type fileHeader struct {
	Magic      uint32
	Dimensions uint32
	Count      uint32
}

// Save writes the index to path, creating parent directories. The file is a
// fileHeader followed by (idLen uint32, id, vector) records, little endian.
func (m *MemoryIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()

	m.mu.RLock()
	defer m.mu.RUnlock()
	w := bufio.NewWriter(f)
	hdr := fileHeader{Magic: fileMagic, Dimensions: uint32(m.dimensions), Count: uint32(len(m.ids))}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, id := range m.ids {
		if err := binary.Write(w, binary.LittleEndian, uint32(len(id))); err != nil {
			return fmt.Errorf("write id len: %w", err)
		}
		if _, err := io.WriteString(w, id); err != nil {
			return fmt.Errorf("write id: %w", err)
		}
		if err := binary.Write(w, binary.LittleEndian, m.vectors[i]); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return w.Flush()
}

// Load replaces the index contents with the file at path. A missing file
// leaves the index unchanged; a dimension mismatch is an error.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if hdr.Magic != fileMagic {
		return fmt.Errorf("%s is not a vector index file", path)
	}
	if int(hdr.Dimensions) != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", hdr.Dimensions, m.dimensions)
	}
	ids := make([]string, 0, hdr.Count)
	vectors := make([][]float32, 0, hdr.Count)
	pos := make(map[string]int, hdr.Count)
	for i := uint32(0); i < hdr.Count; i++ {
		var n uint32
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return fmt.Errorf("read id len: %w", err)
		}
		id := make([]byte, n)
		if _, err := io.ReadFull(r, id); err != nil {
			return fmt.Errorf("read id: %w", err)
		}
		vec := make([]float32, m.dimensions)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		pos[string(id)] = len(ids)
		ids = append(ids, string(id))
		vectors = append(vectors, vec)
	}
	m.mu.Lock()
	m.ids, m.vectors, m.pos = ids, vectors, pos
	m.mu.Unlock()
	return nil
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
