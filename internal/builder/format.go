package builder

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/degreefyd/assistant/internal/models"
)

const notAvailable = "N/A"

// section renders a titled block, or "" when body is empty.
func section(title, body string) string {
	if body == "" {
		return ""
	}
	return "=== " + title + " ===\n" + body
}

// formatDocs renders up to max documents, each followed by its source URL.
func formatDocs(docs []models.Document, max int) string {
	if len(docs) > max {
		docs = docs[:max]
	}
	parts := make([]string, len(docs))
	for i, d := range docs {
		parts[i] = d.Content + "\nSource: " + d.Metadata.URL
	}
	return strings.Join(parts, "\n---\n")
}

func formatCollege(c models.College) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "College: %s\n", c.Name)
	if c.NIRFRank.Valid && c.NIRFRank.Int64 != 0 {
		fmt.Fprintf(&sb, "  NIRF Rank: #%d\n", c.NIRFRank.Int64)
	}
	if c.Rating.Valid && c.Rating.Float64 != 0 {
		fmt.Fprintf(&sb, "  Rating: %s/5\n", formatFloat(c.Rating.Float64))
	}
	if c.CollegeType.Valid && c.CollegeType.String != "" {
		fmt.Fprintf(&sb, "  Type: %s\n", c.CollegeType.String)
	}
	if c.FeeRange.Valid && c.FeeRange.String != "" {
		fmt.Fprintf(&sb, "  Fee Range: INR %s\n", c.FeeRange.String)
	}
	if c.CoursesOffered.Valid && c.CoursesOffered.Int64 != 0 {
		fmt.Fprintf(&sb, "  Courses Offered: %d\n", c.CoursesOffered.Int64)
	}
	if c.TotalStudents.Valid && c.TotalStudents.Int64 != 0 {
		fmt.Fprintf(&sb, "  Total Students: %s\n", groupThousands(c.TotalStudents.Int64))
	}
	if c.EstablishedYear.Valid && c.EstablishedYear.Int64 != 0 {
		fmt.Fprintf(&sb, "  Established: %d\n", c.EstablishedYear.Int64)
	}
	if c.Location.Valid && c.Location.String != "" {
		fmt.Fprintf(&sb, "  Location: %s\n", c.Location.String)
	}
	return sb.String()
}

func formatExam(e models.Exam) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Exam: %s\n", e.Name)
	optional := []struct {
		label string
		value sql.NullString
	}{
		{"Exam Date", e.ExamDate},
		{"Conducting Body", e.ConductingBody},
		{"Mode", e.ExamMode},
		{"Duration", e.Duration},
	}
	for _, o := range optional {
		if o.value.Valid && o.value.String != "" {
			fmt.Fprintf(&sb, "  %s: %s\n", o.label, o.value.String)
		}
	}
	return sb.String()
}

// formatRankedList renders a numbered college list under header.
func formatRankedList(header string, colleges []models.College) string {
	rows := []string{header + ":\n"}
	for i, c := range colleges {
		rows = append(rows, fmt.Sprintf("  %d. %s | NIRF #%s | Fee: INR %s | %s",
			i+1, c.Name, nullInt(c.NIRFRank), nullString(c.FeeRange), c.Location.String))
	}
	return strings.Join(rows, "\n")
}

func formatComparisonTable(c models.Comparison) string {
	rows := []string{
		fmt.Sprintf("%-25s %2s %-35s %-35s", "Parameter", "", c.College1, c.College2),
		strings.Repeat("-", 100),
	}
	add := func(label, v1, v2 string) {
		rows = append(rows, fmt.Sprintf("%-25s %2s %-35s %-35s", label, "", v1, v2))
	}
	add("Fees (Starting)", nullString(c.College1Fees), nullString(c.College2Fees))
	add("NIRF Rank", nullInt(c.College1NIRF), nullInt(c.College2NIRF))
	add("Rating", nullFloat(c.College1Rating), nullFloat(c.College2Rating))
	add("College Type", nullString(c.College1Type), nullString(c.College2Type))
	add("Location", nullString(c.College1Location), nullString(c.College2Location))
	add("Courses Offered", nullInt(c.College1Courses), nullInt(c.College2Courses))
	add("Established Year", nullInt(c.College1Year), nullInt(c.College2Year))
	add("Total Students", nullInt(c.College1Students), nullInt(c.College2Students))
	return strings.Join(rows, "\n")
}

func formatCollegeSummary(c models.College) string {
	return fmt.Sprintf("  NIRF Rank: #%s\n  Fee Range: INR %s\n  Courses: %s",
		nullInt(c.NIRFRank), nullString(c.FeeRange), nullInt(c.CoursesOffered))
}

func nullString(v sql.NullString) string {
	if !v.Valid || v.String == "" {
		return notAvailable
	}
	return v.String
}

func nullInt(v sql.NullInt64) string {
	if !v.Valid || v.Int64 == 0 {
		return notAvailable
	}
	return strconv.FormatInt(v.Int64, 10)
}

func nullFloat(v sql.NullFloat64) string {
	if !v.Valid || v.Float64 == 0 {
		return notAvailable
	}
	return formatFloat(v.Float64)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// groupThousands formats n with comma separators, e.g. 12500 -> "12,500".
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
