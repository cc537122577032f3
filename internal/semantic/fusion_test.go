package semantic

import (
	"context"
	"testing"

	"github.com/degreefyd/assistant/internal/embedding"
	"github.com/degreefyd/assistant/internal/models"
)

func TestNormalizeByMax(t *testing.T) {
	m := NormalizeByMax(map[string]float64{"a": 2, "b": 4, "c": 1})
	if m["b"] != 1.0 {
		t.Errorf("max score should be 1.0, got %f", m["b"])
	}
	if m["a"] != 0.5 {
		t.Errorf("a should be 0.5, got %f", m["a"])
	}
	if len(m) != 3 {
		t.Errorf("expected 3 entries, got %d", len(m))
	}
	zero := NormalizeByMax(map[string]float64{"a": 0})
	if zero["a"] != 0 {
		t.Errorf("zero max should normalize to 0, got %f", zero["a"])
	}
}

func TestFuse(t *testing.T) {
	kw := map[string]float64{"d1": 1.0, "d2": 0.5}
	sem := map[string]float64{"d1": 0.5, "d2": 1.0, "d3": 0.2}
	results := Fuse(kw, sem, 0.3, 0.7)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].ID != "d2" || results[2].ID != "d3" {
		t.Errorf("order = %s, %s, %s", results[0].ID, results[1].ID, results[2].ID)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Error("results should be sorted by score descending")
		}
	}

	tied := Fuse(map[string]float64{"b": 1, "a": 1}, nil, 1, 0)
	if tied[0].ID != "a" {
		t.Error("ties should be broken by id")
	}
}

func TestHybridSearcher(t *testing.T) {
	vs, err := NewVectorSearcher(embedding.NewMockEmbedder(128))
	if err != nil {
		t.Fatal(err)
	}
	bs, err := NewBleveSearcher("")
	if err != nil {
		t.Fatal(err)
	}
	h := NewHybridSearcher(vs, bs, 0.3, 0.7)
	defer h.Close()
	ctx := context.Background()

	if err := h.Add(ctx, sampleDocs()); err != nil {
		t.Fatal(err)
	}
	if h.Count() != 4 {
		t.Errorf("Count = %d", h.Count())
	}

	docs, err := h.Search(ctx, "JEE Main exam date", models.DocTypeExam, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ID != "e1" || docs[0].Distance == nil {
		t.Fatalf("exam filter: got %+v", docs)
	}

	top, err := h.Search(ctx, "IIT Bombay hostel fees", "", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0].ID != "c1" {
		t.Errorf("got %+v", top)
	}
}
