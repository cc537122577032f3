// Package semantic provides the document search backends used for retrieval:
// an embedding-based vector searcher and a Bleve keyword searcher.
package semantic

import (
	"context"

	"github.com/degreefyd/assistant/internal/models"
)

// Searcher returns up to n documents nearest to text, ordered by ascending
// distance. docType restricts results to one metadata type; "" means no filter.
type Searcher interface {
	Search(ctx context.Context, text, docType string, n int) ([]models.Document, error)
}

// Index is a Searcher that can be populated.
type Index interface {
	Searcher
	Add(ctx context.Context, docs []models.Document) error
	Count() int
	Close() error
}

// ScoreToDistance maps a non-negative relevance score (higher is better) onto
// (0, 1], lower is closer, so keyword hits share the distance contract.
func ScoreToDistance(score float64) float64 {
	if score < 0 {
		score = 0
	}
	return 1 / (1 + score)
}
