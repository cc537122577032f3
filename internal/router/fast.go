package router

import (
	"regexp"
	"strings"

	"github.com/degreefyd/assistant/internal/models"
)

var (
	comparisonPattern = regexp.MustCompile(`\bvs\b|\bversus\b|\bcompare\b|\bcomparison\b`)
	topCollegePattern = regexp.MustCompile(`\btop\b.*\bcollege|\bbest\b.*\bcollege|\branked\b.*\bcollege|\bpopular\b.*\bcollege`)
	rankTokenPattern  = regexp.MustCompile(`\d+\s*(?:rank|percentile|score)`)
	predictorPattern  = regexp.MustCompile(`\d+\s*(?:rank|percentile)|(?:rank|percentile|score)\s*\d+|\bcan i get\b|\bwhich colleges.*\d+`)
)

var examKeywords = []string{
	"exam date", "admit card", "exam pattern", "syllabus", "result date",
	"application form", "mock test", "registration deadline",
}

// collegePhrases are checked before the predictor rules so that
// "admission to VIT" is not read as a rank question.
var collegePhrases = []string{
	"admission to", "admission in", "admission process", "how to get into",
	"fee at", "fees at", "fee structure", "hostel at", "placement at",
	"scholarship at", "campus life", "courses at", "facilities at",
}

// FastRoute classifies obvious queries by pattern. Rule groups are tried in
// order and the first match wins; ok is false when no rule fires.
func FastRoute(query string) (models.Category, bool) {
	q := strings.ToLower(query)

	if comparisonPattern.MatchString(q) {
		return models.CategoryComparison, true
	}
	if containsAny(q, examKeywords) {
		return models.CategoryExam, true
	}
	if containsAny(q, collegePhrases) {
		return models.CategoryCollege, true
	}
	if topCollegePattern.MatchString(q) && !rankTokenPattern.MatchString(q) {
		return models.CategoryTopColleges, true
	}
	if predictorPattern.MatchString(q) {
		return models.CategoryPredictor, true
	}
	return models.CategoryGeneral, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
