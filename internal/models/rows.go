package models

import "database/sql"

// College is a row of the colleges table. NIRFRank is the ranking metric
// (lower is better).
type College struct {
	ID              int64           `db:"id"`
	Name            string          `db:"name"`
	Location        sql.NullString  `db:"location"`
	CollegeType     sql.NullString  `db:"college_type"`
	EstablishedYear sql.NullInt64   `db:"established_year"`
	NIRFRank        sql.NullInt64   `db:"nirf_rank"`
	Rating          sql.NullFloat64 `db:"rating"`
	TotalStudents   sql.NullInt64   `db:"total_students"`
	CoursesOffered  sql.NullInt64   `db:"courses_offered"`
	FeeRange        sql.NullString  `db:"fee_range"`
	URL             sql.NullString  `db:"url"`
}

// Exam is a row of the exams table.
type Exam struct {
	ID               int64          `db:"id"`
	Name             string         `db:"name"`
	FullName         sql.NullString `db:"full_name"`
	ExamDate         sql.NullString `db:"exam_date"`
	ApplicationStart sql.NullString `db:"application_start"`
	ApplicationEnd   sql.NullString `db:"application_end"`
	ResultDate       sql.NullString `db:"result_date"`
	ConductingBody   sql.NullString `db:"conducting_body"`
	ExamMode         sql.NullString `db:"exam_mode"`
	Duration         sql.NullString `db:"duration"`
	URL              sql.NullString `db:"url"`
	RawContent       sql.NullString `db:"raw_content"`
}

// Comparison is a row of the comparisons table. The pair (College1, College2)
// is unique in one order only, so lookups must try both orders.
type Comparison struct {
	ID               int64           `db:"id"`
	College1         string          `db:"college_1"`
	College2         string          `db:"college_2"`
	College1Fees     sql.NullString  `db:"college_1_fees"`
	College2Fees     sql.NullString  `db:"college_2_fees"`
	College1NIRF     sql.NullInt64   `db:"college_1_nirf"`
	College2NIRF     sql.NullInt64   `db:"college_2_nirf"`
	College1Courses  sql.NullInt64   `db:"college_1_courses"`
	College2Courses  sql.NullInt64   `db:"college_2_courses"`
	College1Year     sql.NullInt64   `db:"college_1_year"`
	College2Year     sql.NullInt64   `db:"college_2_year"`
	College1Students sql.NullInt64   `db:"college_1_students"`
	College2Students sql.NullInt64   `db:"college_2_students"`
	College1Type     sql.NullString  `db:"college_1_type"`
	College2Type     sql.NullString  `db:"college_2_type"`
	College1Rating   sql.NullFloat64 `db:"college_1_rating"`
	College2Rating   sql.NullFloat64 `db:"college_2_rating"`
	College1Location sql.NullString  `db:"college_1_location"`
	College2Location sql.NullString  `db:"college_2_location"`
	URL              sql.NullString  `db:"url"`
}
