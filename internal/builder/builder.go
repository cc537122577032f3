// Package builder assembles the per-category evidence bundle handed to the
// answer generator.
package builder

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/degreefyd/assistant/internal/models"
	"github.com/degreefyd/assistant/internal/semantic"
	"github.com/degreefyd/assistant/internal/selfrag"
	"github.com/degreefyd/assistant/internal/storage"
)

const (
	defaultTopK         = 5
	comparisonSearchK   = 3
	examBlogK           = 2
	predictorBlogK      = 3
	topBlogK            = 2
	locationFallbackK   = 5
	predictorMaxRows    = 15
	topCollegesMaxRows  = 10
	generalMaxDocuments = 5
)

// Request is the input to a context build. Prefetched holds the documents
// already retrieved by the pipeline; only the GENERAL builder uses them.
type Request struct {
	Query      string
	Route      models.RouteResult
	Prefetched []models.Document
}

// Builder renders the evidence bundle for one category.
type Builder interface {
	Build(ctx context.Context, req Request) models.ContextBundle
}

// ThresholdPolicy maps a user's rank to the worst NIRF rank considered
// reachable by the predictor.
type ThresholdPolicy func(rank int) int

// DefaultThreshold doubles small ranks, capped at 200, and uses 200 for
// ranks of 100 and above.
func DefaultThreshold(rank int) int {
	if rank < 100 {
		return min(rank*2, 200)
	}
	return 200
}

// Set holds one builder per category over shared store and search clients.
type Set struct {
	store        storage.Store
	search       semantic.Searcher
	topK         int
	threshold    ThresholdPolicy
	webThreshold float64
	logger       *zap.Logger
}

// Option configures a Set.
type Option func(*Set)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Set) { s.logger = l }
}

// WithThresholdPolicy replaces the predictor rank threshold.
func WithThresholdPolicy(p ThresholdPolicy) Option {
	return func(s *Set) { s.threshold = p }
}

// WithTopK sets the primary semantic search size.
func WithTopK(k int) Option {
	return func(s *Set) {
		if k > 0 {
			s.topK = k
		}
	}
}

// WithWebThreshold sets the distance threshold used by the GENERAL builder.
func WithWebThreshold(t float64) Option {
	return func(s *Set) { s.webThreshold = t }
}

// New creates the builder set.
func New(store storage.Store, search semantic.Searcher, opts ...Option) *Set {
	s := &Set{
		store:        store,
		search:       search,
		topK:         defaultTopK,
		threshold:    DefaultThreshold,
		webThreshold: selfrag.DefaultWebThreshold,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// For returns the builder for category c.
func (s *Set) For(c models.Category) Builder {
	switch c {
	case models.CategoryCollege:
		return collegeBuilder{s}
	case models.CategoryExam:
		return examBuilder{s}
	case models.CategoryComparison:
		return comparisonBuilder{s}
	case models.CategoryPredictor:
		return predictorBuilder{s}
	case models.CategoryTopColleges:
		return topCollegesBuilder{s}
	case models.CategoryGeneral:
		return generalBuilder{s}
	default:
		return generalBuilder{s}
	}
}

// Build dispatches req to the builder of its routed category.
func (s *Set) Build(ctx context.Context, req Request) models.ContextBundle {
	return s.For(req.Route.Category).Build(ctx, req)
}

// searchDocs runs a semantic search, treating failures as no results.
func (s *Set) searchDocs(ctx context.Context, text, docType string, n int) []models.Document {
	docs, err := s.search.Search(ctx, text, docType, n)
	if err != nil {
		s.logger.Warn("semantic search failed",
			zap.String("type", docType),
			zap.Error(err),
		)
		return nil
	}
	return docs
}

func (s *Set) college(ctx context.Context, name string) *models.College {
	c, err := s.store.CollegeByName(ctx, name)
	if err != nil {
		s.logger.Warn("college lookup failed", zap.String("name", name), zap.Error(err))
		return nil
	}
	return c
}

func (s *Set) exam(ctx context.Context, name string) *models.Exam {
	e, err := s.store.ExamByName(ctx, name)
	if err != nil {
		s.logger.Warn("exam lookup failed", zap.String("name", name), zap.Error(err))
		return nil
	}
	return e
}

func (s *Set) comparison(ctx context.Context, a, b string) *models.Comparison {
	c, err := s.store.Comparison(ctx, a, b)
	if err != nil {
		s.logger.Warn("comparison lookup failed", zap.String("a", a), zap.String("b", b), zap.Error(err))
		return nil
	}
	return c
}

func (s *Set) topColleges(ctx context.Context, limit int, location string) []models.College {
	rows, err := s.store.TopColleges(ctx, limit, location)
	if err != nil {
		s.logger.Warn("top colleges lookup failed", zap.String("location", location), zap.Error(err))
		return nil
	}
	return rows
}

func (s *Set) collegesByRank(ctx context.Context, maxRank, limit int) []models.College {
	rows, err := s.store.CollegesByRankUpTo(ctx, maxRank, limit)
	if err != nil {
		s.logger.Warn("rank lookup failed", zap.Int("max_rank", maxRank), zap.Error(err))
		return nil
	}
	return rows
}

// bundle joins non-empty sections and derives the web flag from hasLocal.
func bundle(hasLocal bool, sections ...string) models.ContextBundle {
	parts := make([]string, 0, len(sections))
	for _, sec := range sections {
		if sec != "" {
			parts = append(parts, sec)
		}
	}
	return models.ContextBundle{
		Text:            strings.Join(parts, "\n\n"),
		HasLocalResults: hasLocal,
		NeedsWebSearch:  !hasLocal,
	}
}
