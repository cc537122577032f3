package models

// RouteResult is the router's output for one query: a category plus the
// entities extracted by the classifier.
type RouteResult struct {
	Category     Category `json:"category"`
	CollegeNames []string `json:"college_names"`
	ExamNames    []string `json:"exam_names"`
	Location     string   `json:"location,omitempty"`
	RankScore    string   `json:"rank_score,omitempty"`
}

// Entities returns college names followed by exam names.
func (r RouteResult) Entities() []string {
	out := make([]string, 0, len(r.CollegeNames)+len(r.ExamNames))
	out = append(out, r.CollegeNames...)
	return append(out, r.ExamNames...)
}

// Entities is the entity view attached to a PipelineResult.
type Entities struct {
	CollegeNames []string `json:"college_names"`
	ExamNames    []string `json:"exam_names"`
	Location     *string  `json:"location"`
	RankScore    *string  `json:"rank_score"`
}

// EntitiesOf converts a RouteResult into its Entities view; empty optional
// slots become nil so they serialize as JSON null.
func EntitiesOf(r RouteResult) Entities {
	e := Entities{
		CollegeNames: append([]string{}, r.CollegeNames...),
		ExamNames:    append([]string{}, r.ExamNames...),
	}
	if r.Location != "" {
		loc := r.Location
		e.Location = &loc
	}
	if r.RankScore != "" {
		rank := r.RankScore
		e.RankScore = &rank
	}
	return e
}

// Clone returns a deep copy of e. Nil slices and pointers stay nil.
func (e Entities) Clone() Entities {
	out := Entities{
		CollegeNames: cloneStrings(e.CollegeNames),
		ExamNames:    cloneStrings(e.ExamNames),
	}
	if e.Location != nil {
		loc := *e.Location
		out.Location = &loc
	}
	if e.RankScore != nil {
		rank := *e.RankScore
		out.RankScore = &rank
	}
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}
