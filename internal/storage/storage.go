// Package storage defines the structured store of colleges, exams and
// college comparisons.
package storage

import (
	"context"

	"github.com/degreefyd/assistant/internal/models"
)

// Store provides typed lookups against the structured dataset. Name lookups
// use case-insensitive substring matching and return the first match, or
// nil with a nil error when nothing matches.
type Store interface {
	CollegeByName(ctx context.Context, name string) (*models.College, error)
	ExamByName(ctx context.Context, name string) (*models.Exam, error)
	// Comparison looks up the comparison row for the pair, trying (a, b)
	// first and then (b, a).
	Comparison(ctx context.Context, a, b string) (*models.Comparison, error)
	// TopColleges returns ranked colleges ordered by NIRF rank ascending,
	// optionally filtered by a location substring ("" means no filter).
	TopColleges(ctx context.Context, limit int, location string) ([]models.College, error)
	// CollegesByRankUpTo returns colleges with NIRF rank <= maxRank, best first.
	CollegesByRankUpTo(ctx context.Context, maxRank, limit int) ([]models.College, error)

	Counts(ctx context.Context) (*Counts, error)
	Close() error
}

// Counts summarizes the size of each table.
type Counts struct {
	Colleges    int64 `json:"colleges"`
	Exams       int64 `json:"exams"`
	Comparisons int64 `json:"comparisons"`
}
