package embedding

import (
	"context"
	"testing"
)

type countingEmbedder struct {
	*MockEmbedder
	calls int
	texts int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	c.texts++
	return c.MockEmbedder.Embed(ctx, text)
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.calls++
	c.texts += len(texts)
	return c.MockEmbedder.EmbedBatch(ctx, texts)
}

func TestCachedEmbedder_Embed(t *testing.T) {
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(16)}
	c, err := NewCachedEmbedder(inner, 2)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	first, _ := c.Embed(ctx, "iit bombay fees")
	second, _ := c.Embed(ctx, "iit bombay fees")
	if inner.calls != 1 {
		t.Errorf("expected 1 inner call, got %d", inner.calls)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatal("cached vector differs")
		}
	}
	// Mutating a returned vector must not poison the cache.
	second[0] = 42
	third, _ := c.Embed(ctx, "iit bombay fees")
	if third[0] == 42 {
		t.Error("cache returned a shared slice")
	}

	_, _ = c.Embed(ctx, "b")
	_, _ = c.Embed(ctx, "c") // evicts the least recently used entry
	if c.Len() != 2 {
		t.Errorf("Len = %d", c.Len())
	}
}

func TestCachedEmbedder_EmbedBatch(t *testing.T) {
	inner := &countingEmbedder{MockEmbedder: NewMockEmbedder(16)}
	c, _ := NewCachedEmbedder(inner, 10)
	ctx := context.Background()

	_, _ = c.Embed(ctx, "a")
	out, err := c.EmbedBatch(ctx, []string{"a", "b", "b", "c"})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 4 || out[1] == nil || out[2] == nil || out[3] == nil {
		t.Fatalf("got %v", out)
	}
	// "a" was cached; "b" is deduplicated.
	if inner.texts != 3 {
		t.Errorf("expected 3 texts embedded in total, got %d", inner.texts)
	}
}

func TestNewCachedEmbedder_InvalidSize(t *testing.T) {
	if _, err := NewCachedEmbedder(NewMockEmbedder(4), 0); err == nil {
		t.Error("expected error for zero size")
	}
}
