package builder

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/degreefyd/assistant/internal/models"
)

var firstInteger = regexp.MustCompile(`\d+`)

// ParseRank returns the first integer in s, or 0 when there is none.
func ParseRank(s string) int {
	m := firstInteger.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

type predictorBuilder struct{ *Set }

// Build lists colleges within the rank threshold and adds cutoff chunks.
func (b predictorBuilder) Build(ctx context.Context, req Request) models.ContextBundle {
	rank := ParseRank(req.Route.RankScore)
	var rows []models.College
	if rank > 0 {
		rows = b.collegesByRank(ctx, b.threshold(rank), predictorMaxRows)
	}

	text := req.Query
	if exams := req.Route.ExamNames; len(exams) > 0 {
		text = strings.Join(exams, " ") + " cutoff rank predictor " + req.Query
	}
	docs := b.searchDocs(ctx, text, models.DocTypeCollege, b.topK)
	docs = append(docs, b.searchDocs(ctx, text, models.DocTypeBlog, predictorBlogK)...)

	var structured string
	if len(rows) > 0 {
		header := "Colleges potentially eligible"
		if rank > 0 {
			header += fmt.Sprintf(" for rank %d", rank)
		}
		structured = section("College Predictor Results", formatRankedList(header, rows))
	}
	return bundle(len(rows) > 0 || len(docs) > 0,
		structured,
		section("Related Information", formatDocs(docs, predictorDocs)),
	)
}

type topCollegesBuilder struct{ *Set }

// Build lists the best-ranked colleges, optionally at the route location,
// and adds college and blog chunks.
func (b topCollegesBuilder) Build(ctx context.Context, req Request) models.ContextBundle {
	location := req.Route.Location
	rows := b.topColleges(ctx, topCollegesMaxRows, location)

	text := fmt.Sprintf("top colleges %s %s", location, req.Query)
	docs := b.searchDocs(ctx, text, models.DocTypeCollege, b.topK)
	docs = append(docs, b.searchDocs(ctx, text, models.DocTypeBlog, topBlogK)...)

	var structured string
	if len(rows) > 0 {
		header := "Top Colleges"
		if location != "" {
			header += " in " + location
		}
		structured = section("Top Colleges Ranking", formatRankedList(header, rows))
	}
	return bundle(len(rows) > 0 || len(docs) > 0,
		structured,
		section("Detailed Information", formatDocs(docs, topDocs)),
	)
}
