package builder

import (
	"context"
	"strings"

	"github.com/degreefyd/assistant/internal/models"
)

const (
	collegeDocs    = 4
	examDocs       = 4
	comparisonDocs = 3
	predictorDocs  = 4
	topDocs        = 3
)

type collegeBuilder struct{ *Set }

// Build looks up each named college, falling back to the best-ranked
// colleges at the route location when none match, and adds college chunks
// plus comparison chunks mentioning the named colleges.
func (b collegeBuilder) Build(ctx context.Context, req Request) models.ContextBundle {
	names := req.Route.CollegeNames
	var rows []models.College
	for _, name := range names {
		if c := b.college(ctx, name); c != nil {
			rows = append(rows, *c)
		}
	}
	if len(rows) == 0 && req.Route.Location != "" {
		rows = b.topColleges(ctx, locationFallbackK, req.Route.Location)
	}

	docs := b.searchDocs(ctx, req.Query, models.DocTypeCollege, b.topK)
	if len(names) > 0 {
		seed := strings.Join(names, " ") + " " + req.Query
		docs = append(docs, b.searchDocs(ctx, seed, models.DocTypeComparison, comparisonSearchK)...)
	}

	var structured string
	if len(rows) > 0 {
		infos := make([]string, len(rows))
		for i, c := range rows {
			infos[i] = formatCollege(c)
		}
		structured = section("Structured College Data", strings.Join(infos, "\n"))
	}
	return bundle(len(rows) > 0 || len(docs) > 0,
		structured,
		section("Detailed Information", formatDocs(docs, collegeDocs)),
	)
}

type examBuilder struct{ *Set }

// Build looks up each named exam and adds exam chunks plus a small blog
// supplement.
func (b examBuilder) Build(ctx context.Context, req Request) models.ContextBundle {
	var rows []models.Exam
	for _, name := range req.Route.ExamNames {
		if e := b.exam(ctx, name); e != nil {
			rows = append(rows, *e)
		}
	}

	docs := b.searchDocs(ctx, req.Query, models.DocTypeExam, b.topK)
	docs = append(docs, b.searchDocs(ctx, req.Query, models.DocTypeBlog, examBlogK)...)

	var structured string
	if len(rows) > 0 {
		infos := make([]string, len(rows))
		for i, e := range rows {
			infos[i] = formatExam(e)
		}
		structured = section("Exam Schedule Data", strings.Join(infos, "\n"))
	}
	return bundle(len(rows) > 0 || len(docs) > 0,
		structured,
		section("Detailed Exam Information", formatDocs(docs, examDocs)),
	)
}
