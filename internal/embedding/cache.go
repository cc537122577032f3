package embedding

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedEmbedder wraps an Embedder with an LRU cache keyed by text.
type CachedEmbedder struct {
	Embedder
	cache *lru.Cache[string, []float32]
}

// NewCachedEmbedder returns inner wrapped with a cache holding up to size vectors.
func NewCachedEmbedder(inner Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be greater than zero")
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, fmt.Errorf("init embedding cache: %w", err)
	}
	return &CachedEmbedder{Embedder: inner, cache: cache}, nil
}

// Embed returns the cached vector for text, computing and storing it on a miss.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		return cloneVector(v), nil
	}
	v, err := c.Embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(text, cloneVector(v))
	return v, nil
}

// EmbedBatch serves cached texts from the cache and embeds the rest in one call.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	missingIdx := make(map[string][]int)
	for i, t := range texts {
		if v, ok := c.cache.Get(t); ok {
			out[i] = cloneVector(v)
			continue
		}
		if _, seen := missingIdx[t]; !seen {
			missing = append(missing, t)
		}
		missingIdx[t] = append(missingIdx[t], i)
	}
	if len(missing) == 0 {
		return out, nil
	}
	vecs, err := c.Embedder.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, t := range missing {
		c.cache.Add(t, cloneVector(vecs[j]))
		for _, i := range missingIdx[t] {
			out[i] = cloneVector(vecs[j])
		}
	}
	return out, nil
}

// Len returns the number of cached vectors.
func (c *CachedEmbedder) Len() int {
	return c.cache.Len()
}

func cloneVector(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
