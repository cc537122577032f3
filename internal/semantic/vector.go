package semantic

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/degreefyd/assistant/internal/embedding"
	"github.com/degreefyd/assistant/internal/models"
	"github.com/degreefyd/assistant/internal/vector"
)

const (
	vectorsFile   = "vectors.bin"
	documentsFile = "documents.json"
)

// VectorSearcher embeds queries and searches a vector index. Distance is the
// cosine distance (1 - cosine similarity).
type VectorSearcher struct {
	embedder embedding.Embedder
	index    vector.VectorIndex
	mu       sync.RWMutex
	docs     map[string]models.Document
}

// NewVectorSearcher returns an empty searcher over an in-memory index sized
// for the embedder.
func NewVectorSearcher(embedder embedding.Embedder) (*VectorSearcher, error) {
	idx, err := vector.NewMemoryIndex(embedder.Dimensions())
	if err != nil {
		return nil, err
	}
	return &VectorSearcher{
		embedder: embedder,
		index:    idx,
		docs:     make(map[string]models.Document),
	}, nil
}

// Add embeds and indexes docs. IDs must be unique; an ID already present is replaced.
func (s *VectorSearcher) Add(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	texts := make([]string, len(docs))
	ids := make([]string, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document %d has no id", i)
		}
		texts[i] = d.Content
		ids[i] = d.ID
	}
	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.index.Add(ctx, ids, vecs); err != nil {
		return fmt.Errorf("failed to index vectors: %w", err)
	}
	for _, d := range docs {
		d.Distance = nil
		s.docs[d.ID] = d
	}
	return nil
}

// Search implements Searcher.
func (s *VectorSearcher) Search(ctx context.Context, text, docType string, n int) ([]models.Document, error) {
	if n <= 0 {
		return nil, nil
	}
	q, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var filter vector.Filter
	if docType != "" {
		filter = func(id string) bool { return s.docs[id].Metadata.Type == docType }
	}
	hits, err := s.index.Search(ctx, q, n, filter)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	out := make([]models.Document, 0, len(hits))
	for _, h := range hits {
		d, ok := s.docs[h.ID]
		if !ok {
			continue
		}
		d.Distance = models.Float64(h.Distance())
		out = append(out, d)
	}
	return out, nil
}

// Count returns the number of indexed documents.
func (s *VectorSearcher) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Save writes the vectors and documents under dir.
func (s *VectorSearcher) Save(dir string) error {
	if dir == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := s.index.Save(filepath.Join(dir, vectorsFile)); err != nil {
		return err
	}
	docs := make([]models.Document, 0, len(s.docs))
	for _, d := range s.docs {
		docs = append(docs, d)
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, documentsFile), data, 0644); err != nil {
		return fmt.Errorf("write documents: %w", err)
	}
	return nil
}

// Load restores a searcher saved with Save. A missing directory leaves the
// searcher empty. On error the current contents are kept.
func (s *VectorSearcher) Load(dir string) error {
	if dir == "" {
		return nil
	}
	data, err := os.ReadFile(filepath.Join(dir, documentsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read documents: %w", err)
	}
	var docs []models.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parse documents: %w", err)
	}
	idx, err := vector.NewMemoryIndex(s.embedder.Dimensions())
	if err != nil {
		return err
	}
	if err := idx.Load(filepath.Join(dir, vectorsFile)); err != nil {
		return err
	}
	byID := make(map[string]models.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}
	if idx.Size() != len(byID) {
		return fmt.Errorf("index has %d vectors but %d documents", idx.Size(), len(byID))
	}
	s.mu.Lock()
	s.index, s.docs = idx, byID
	s.mu.Unlock()
	return nil
}

// Close releases the index and embedder.
func (s *VectorSearcher) Close() error {
	if err := s.index.Close(); err != nil {
		return err
	}
	return s.embedder.Close()
}
