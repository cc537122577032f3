package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/degreefyd/assistant/internal/models"
)

type comparisonBuilder struct{ *Set }

// Build renders the comparison table for the first two named colleges, a
// summary of each named college and comparison chunks. The semantic query
// depends on how many colleges were named.
func (b comparisonBuilder) Build(ctx context.Context, req Request) models.ContextBundle {
	names := req.Route.CollegeNames
	var (
		table    *models.Comparison
		colleges []models.College
		docs     []models.Document
	)
	switch {
	case len(names) >= 2:
		table = b.comparison(ctx, names[0], names[1])
		docs = b.pairDocs(ctx, names[0], names[1])
	case len(names) == 1:
		docs = b.searchDocs(ctx, names[0]+" comparison", models.DocTypeComparison, b.topK)
	default:
		docs = b.searchDocs(ctx, req.Query, models.DocTypeComparison, b.topK)
	}
	for _, name := range names[:min(len(names), 2)] {
		if c := b.college(ctx, name); c != nil {
			colleges = append(colleges, *c)
		}
	}

	sections := make([]string, 0, 4)
	if table != nil {
		sections = append(sections, section("Structured Comparison Data", formatComparisonTable(*table)))
	}
	for _, c := range colleges {
		sections = append(sections, "=== "+c.Name+" ===\n"+formatCollegeSummary(c))
	}
	sections = append(sections, section("Detailed Comparison Content", formatDocs(docs, comparisonDocs)))
	return bundle(table != nil || len(colleges) > 0 || len(docs) > 0, sections...)
}

// pairDocs searches comparison chunks for the pair and keeps those naming
// both colleges, or all hits when none do.
func (b comparisonBuilder) pairDocs(ctx context.Context, a, c string) []models.Document {
	docs := b.searchDocs(ctx, fmt.Sprintf("Compare %s and %s", a, c), models.DocTypeComparison, comparisonSearchK)
	la, lc := strings.ToLower(a), strings.ToLower(c)
	var both []models.Document
	for _, d := range docs {
		content := strings.ToLower(d.Content)
		if strings.Contains(content, la) && strings.Contains(content, lc) {
			both = append(both, d)
		}
	}
	if len(both) == 0 {
		return docs
	}
	return both
}
