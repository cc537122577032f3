package semantic

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/degreefyd/assistant/internal/models"
)

// candidateFactor widens each backend's result set before fusion.
const candidateFactor = 2

// HybridSearcher runs the vector and keyword searchers concurrently and
// keeps the n best hits of their union by weighted score. A hit keeps its
// cosine distance when the vector side found it, else the keyword-derived
// distance, and the kept hits are returned by ascending distance.
type HybridSearcher struct {
	vector         *VectorSearcher
	keyword        *BleveSearcher
	keywordWeight  float64
	semanticWeight float64
}

// NewHybridSearcher combines v and k with the given weights.
func NewHybridSearcher(v *VectorSearcher, k *BleveSearcher, keywordWeight, semanticWeight float64) *HybridSearcher {
	return &HybridSearcher{
		vector:         v,
		keyword:        k,
		keywordWeight:  keywordWeight,
		semanticWeight: semanticWeight,
	}
}

// Search implements Searcher.
func (h *HybridSearcher) Search(ctx context.Context, text, docType string, n int) ([]models.Document, error) {
	if n <= 0 {
		return nil, nil
	}
	var (
		keywordDocs   []models.Document
		keywordScores []float64
		semanticDocs  []models.Document
		errChan       = make(chan error, 2)
		wg            sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		docs, scores, err := h.keyword.search(ctx, text, docType, n*candidateFactor)
		if err != nil {
			errChan <- fmt.Errorf("keyword search failed: %w", err)
			return
		}
		keywordDocs, keywordScores = docs, scores
	}()
	go func() {
		defer wg.Done()
		docs, err := h.vector.Search(ctx, text, docType, n*candidateFactor)
		if err != nil {
			errChan <- fmt.Errorf("vector search failed: %w", err)
			return
		}
		semanticDocs = docs
	}()
	wg.Wait()
	close(errChan)
	for err := range errChan {
		if err != nil {
			return nil, err
		}
	}

	byID := make(map[string]models.Document, len(keywordDocs)+len(semanticDocs))
	rawKeyword := make(map[string]float64, len(keywordDocs))
	for i, d := range keywordDocs {
		rawKeyword[d.ID] = keywordScores[i]
		d.Distance = models.Float64(ScoreToDistance(keywordScores[i]))
		byID[d.ID] = d
	}
	semantic := make(map[string]float64, len(semanticDocs))
	for _, d := range semanticDocs {
		if d.Distance != nil {
			semantic[d.ID] = 1 - *d.Distance
		}
		byID[d.ID] = d
	}

	fused := Fuse(NormalizeByMax(rawKeyword), semantic, h.keywordWeight, h.semanticWeight)
	if len(fused) > n {
		fused = fused[:n]
	}
	out := make([]models.Document, 0, len(fused))
	for _, r := range fused {
		out = append(out, byID[r.ID])
	}
	sort.SliceStable(out, func(i, j int) bool { return distanceOf(out[i]) < distanceOf(out[j]) })
	return out, nil
}

func distanceOf(d models.Document) float64 {
	if d.Distance == nil {
		return 1
	}
	return *d.Distance
}

// Add indexes docs in both backends.
func (h *HybridSearcher) Add(ctx context.Context, docs []models.Document) error {
	if err := h.vector.Add(ctx, docs); err != nil {
		return err
	}
	return h.keyword.Add(ctx, docs)
}

// Count returns the number of documents in the vector backend.
func (h *HybridSearcher) Count() int {
	return h.vector.Count()
}

// Save persists the vector backend; the keyword index persists itself.
func (h *HybridSearcher) Save(dir string) error {
	return h.vector.Save(dir)
}

// Close closes both backends.
func (h *HybridSearcher) Close() error {
	kerr := h.keyword.Close()
	if err := h.vector.Close(); err != nil {
		return err
	}
	return kerr
}
