// Package embedding provides text embedding via a hosted API or a local
// feature-hashing model, plus an embedding cache.
package embedding

import "context"

// Embedder produces vector embeddings for text. Returned vectors are L2-normalized.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
