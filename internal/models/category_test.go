package models

import (
	"encoding/json"
	"testing"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in     string
		want   Category
		wantOK bool
	}{
		{"COLLEGE", CategoryCollege, true},
		{" top_colleges ", CategoryTopColleges, true},
		{"predictor", CategoryPredictor, true},
		{"GENERAL", CategoryGeneral, true},
		{"SPORTS", CategoryGeneral, false},
		{"", CategoryGeneral, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCategory(tt.in)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseCategory(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestCategory_StringRoundTrip(t *testing.T) {
	for _, c := range Categories {
		got, ok := ParseCategory(c.String())
		if !ok || got != c {
			t.Errorf("round trip of %v gave %v, %v", c, got, ok)
		}
	}
}

func TestCategory_Label(t *testing.T) {
	if got := CategoryTopColleges.Label(); got != "Top Colleges" {
		t.Errorf("Label() = %q, want %q", got, "Top Colleges")
	}
	if got := CategoryExam.Label(); got != "Exam" {
		t.Errorf("Label() = %q, want %q", got, "Exam")
	}
}

func TestCategory_JSON(t *testing.T) {
	b, err := json.Marshal(struct {
		C Category `json:"c"`
	}{CategoryComparison})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"c":"COMPARISON"}` {
		t.Errorf("marshal: got %s", b)
	}
	var out struct {
		C Category `json:"c"`
	}
	if err := json.Unmarshal([]byte(`{"c":"EXAM"}`), &out); err != nil {
		t.Fatal(err)
	}
	if out.C != CategoryExam {
		t.Errorf("unmarshal: got %v", out.C)
	}
	if err := json.Unmarshal([]byte(`{"c":"NOPE"}`), &out); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestParseVerdict(t *testing.T) {
	if v, ok := ParseVerdict(" Relevant\n"); !ok || v != VerdictRelevant {
		t.Errorf("got %v, %v", v, ok)
	}
	if v, ok := ParseVerdict("maybe"); ok || v != VerdictPartial {
		t.Errorf("unknown token should give partial,false; got %v, %v", v, ok)
	}
	if VerdictIrrelevant.Usable() || !VerdictPartial.Usable() || !VerdictRelevant.Usable() {
		t.Error("Usable() mismatch")
	}
}

func TestEntitiesOf(t *testing.T) {
	e := EntitiesOf(RouteResult{CollegeNames: []string{"DTU"}, Location: "Delhi"})
	if e.Location == nil || *e.Location != "Delhi" {
		t.Errorf("location: %v", e.Location)
	}
	if e.RankScore != nil {
		t.Errorf("rank score should be nil, got %v", *e.RankScore)
	}
	if len(e.ExamNames) != 0 || e.ExamNames == nil {
		t.Errorf("exam names should be an empty non-nil slice, got %#v", e.ExamNames)
	}
}

func TestStaticStream(t *testing.T) {
	s := NewStaticStream("a", "b")
	var got string
	for s.Next() {
		got += s.Current()
	}
	if got != "ab" || s.Err() != nil {
		t.Errorf("got %q err=%v", got, s.Err())
	}
	if s.Next() {
		t.Error("stream must not restart")
	}
}
