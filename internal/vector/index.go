// Package vector provides vector index and similarity search.
package vector

import "context"

// Filter reports whether the entry with the given ID may be returned.
// A nil Filter accepts every entry.
type Filter func(id string) bool

// VectorIndex defines vector storage and similarity search.
type VectorIndex interface {
	Add(ctx context.Context, ids []string, vectors [][]float32) error
	Search(ctx context.Context, query []float32, k int, filter Filter) ([]*VectorResult, error)
	Remove(ctx context.Context, ids []string) error
	Save(path string) error
	Load(path string) error
	Size() int
	Close() error
}

// VectorResult is a single vector search hit (ID is the chunk ID).
type VectorResult struct {
	ID    string
	Score float64 // cosine similarity for normalized vectors
}

// Distance converts the similarity score to a cosine distance; lower is closer.
func (r *VectorResult) Distance() float64 {
	return 1 - r.Score
}
