package router

import (
	"strings"

	"github.com/degreefyd/assistant/internal/models"
)

const classifyPrompt = `You are a query classifier for an education chatbot. Classify the user's query into ONE category.

Categories and rules:
1. COLLEGE - Questions about a SPECIFIC named college: admissions process, fees, facilities, placements, hostel, scholarships, courses offered, campus life. The college name is mentioned.
   Examples: "How to get admission to VIT Vellore", "Fee at DTU", "IIT Bombay hostel facilities", "LPU placements"

2. EXAM - Questions about entrance exams: dates, patterns, admit cards, results, syllabus, registration, mock tests.
   Examples: "JEE Main exam pattern", "MHT CET admit card", "GATE 2026 syllabus", "CLAT exam date"

3. COMPARISON - Comparing TWO or more colleges against each other.
   Examples: "VIT vs Amrita", "Compare IIM Indore and IIM Kozhikode", "Which is better DTU or NSIT"

4. PREDICTOR - User has a rank/score/percentile and wants to know which colleges they can get into.
   Examples: "Which colleges with JEE rank 5000", "70 percentile in MHT CET colleges", "Can I get NIT with rank 10000"
   IMPORTANT: "How to get admission" or "admission process" is COLLEGE, NOT PREDICTOR.

5. TOP_COLLEGES - Finding top/best/popular colleges by location, ranking, or course type WITHOUT a specific rank.
   Examples: "Top B.Tech colleges in Mumbai", "Best engineering colleges in Bangalore", "Top ranked NITs"

6. GENERAL - General advice, career guidance, blog content.

Extract entities:
- college_names: List of college names mentioned
- exam_names: List of exam names mentioned
- location: City/State if mentioned
- rank_score: Any rank or percentile mentioned

Query: {query}

Respond in this exact format:
CATEGORY: <category>
COLLEGE_NAMES: <comma-separated names or NONE>
EXAM_NAMES: <comma-separated names or NONE>
LOCATION: <location or NONE>
RANK_SCORE: <rank/percentile or NONE>`

const noneToken = "NONE"

// Prompt returns the classification prompt for query.
func Prompt(query string) string {
	return strings.Replace(classifyPrompt, "{query}", query, 1)
}

// ParseResponse reads the labeled-line classification answer. Lines without
// a colon, unknown labels and unknown categories are ignored, leaving the
// GENERAL default in place.
func ParseResponse(response string) models.RouteResult {
	result := models.RouteResult{Category: models.CategoryGeneral}
	for _, line := range strings.Split(strings.TrimSpace(response), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if value == noneToken {
			continue
		}
		switch key {
		case "CATEGORY":
			if c, ok := models.ParseCategory(value); ok {
				result.Category = c
			}
		case "COLLEGE_NAMES":
			result.CollegeNames = splitList(value)
		case "EXAM_NAMES":
			result.ExamNames = splitList(value)
		case "LOCATION":
			result.Location = value
		case "RANK_SCORE":
			result.RankScore = value
		}
	}
	return result
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
