// Package models defines the core data structures shared by the router,
// context builders, verifier and pipeline.
package models

import (
	"fmt"
	"strings"
)

// Category is the closed set of query categories produced by the router.
type Category int

const (
	CategoryGeneral Category = iota
	CategoryCollege
	CategoryExam
	CategoryComparison
	CategoryPredictor
	CategoryTopColleges
)

// Categories lists every category in router prompt order.
var Categories = []Category{
	CategoryCollege,
	CategoryExam,
	CategoryComparison,
	CategoryPredictor,
	CategoryTopColleges,
	CategoryGeneral,
}

// String returns the wire name of the category (e.g. "TOP_COLLEGES").
func (c Category) String() string {
	switch c {
	case CategoryCollege:
		return "COLLEGE"
	case CategoryExam:
		return "EXAM"
	case CategoryComparison:
		return "COMPARISON"
	case CategoryPredictor:
		return "PREDICTOR"
	case CategoryTopColleges:
		return "TOP_COLLEGES"
	case CategoryGeneral:
		return "GENERAL"
	default:
		return fmt.Sprintf("Category(%d)", int(c))
	}
}

// Label returns a human-readable title, e.g. "Top Colleges".
func (c Category) Label() string {
	parts := strings.Split(strings.ToLower(c.String()), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// ParseCategory parses a wire name. Matching is case-insensitive and ignores
// surrounding whitespace; unknown names return false.
func ParseCategory(s string) (Category, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "COLLEGE":
		return CategoryCollege, true
	case "EXAM":
		return CategoryExam, true
	case "COMPARISON":
		return CategoryComparison, true
	case "PREDICTOR":
		return CategoryPredictor, true
	case "TOP_COLLEGES":
		return CategoryTopColleges, true
	case "GENERAL":
		return CategoryGeneral, true
	default:
		return CategoryGeneral, false
	}
}

// MarshalText encodes the category as its wire name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a wire name.
func (c *Category) UnmarshalText(b []byte) error {
	parsed, ok := ParseCategory(string(b))
	if !ok {
		return fmt.Errorf("unknown category %q", string(b))
	}
	*c = parsed
	return nil
}

// SampleQuestions returns example questions shown for a category tab.
// GENERAL has none.
func SampleQuestions(c Category) []string {
	switch c {
	case CategoryCollege:
		return []string{
			"How can I get admission to VIT Vellore?",
			"How much is the fee at DTU?",
			"What are the hostel facilities like at IIT Bombay?",
			"Which companies visited LPU for placements this year?",
			"What need-based scholarships are available at Amity University?",
		}
	case CategoryExam:
		return []string{
			"What is the exam pattern for JEE Main?",
			"Where can I download MHT CET admit card?",
			"When will the application for JEE Advanced begin?",
			"What is the CLAT 2026 exam date?",
			"What is the syllabus for GATE 2026?",
		}
	case CategoryComparison:
		return []string{
			"Which has better placements, VIT Vellore or Amrita?",
			"Compare IIM Indore vs IIM Kozhikode",
			"Which college has a better NIRF ranking, LPU or Chandigarh University?",
			"What is the fee difference between Amity Gurugram and Amity Lucknow?",
			"How do campus facilities compare between IIT Bombay and IIT Delhi?",
		}
	case CategoryPredictor:
		return []string{
			"Which colleges accept 70 rank in JEE Main?",
			"What are the best colleges for 70 percentile in MHT CET?",
			"Can I get into top colleges with 70 rank in TS EAMCET?",
			"Cutoffs for all branches at DTU?",
			"What is the entrance exam cutoff for VIT Vellore this year?",
		}
	case CategoryTopColleges:
		return []string{
			"B.E. / B.Tech colleges in India",
			"Top Ranked B.E. / B.Tech colleges in Mumbai",
			"Private B.E. / B.Tech colleges in Bangalore",
			"Which are the Top Ranked colleges in Jaipur?",
			"Popular colleges in Kolkata",
		}
	case CategoryGeneral:
		return nil
	default:
		return nil
	}
}
