package embedding

import (
	"context"

	"github.com/degreefyd/assistant/pkg/utils"
)

// MockEmbedder is a deterministic feature-hashing embedder. Each word and word
// bigram is hashed into one dimension with a hash-derived sign, so texts that
// share vocabulary land close together. It backs the "hash" provider and tests.
type MockEmbedder struct {
	dimensions int
}

// NewMockEmbedder returns an embedder that produces deterministic embeddings of the given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns the normalized hashed bag-of-words vector for text. Text
// without any word yields the zero vector.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb := make([]float32, e.dimensions)
	words := SplitWords(text)
	add := func(tok string, weight float32) {
		h := HashString(tok)
		sign := float32(1)
		if (h/e.dimensions)%2 == 1 {
			sign = -1
		}
		emb[h%e.dimensions] += sign * weight
	}
	for _, w := range words {
		add(w, 1)
	}
	for _, bg := range Bigrams(words) {
		add(bg, 0.5)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
