package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/degreefyd/assistant/internal/models"
)

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestWriteAnswer_Text(t *testing.T) {
	result := &models.PipelineResult{
		Text:            "IIT Bombay has 18 hostels.",
		Category:        models.CategoryCollege,
		HasLocalResults: true,
	}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, result, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "[COLLEGE]\n") {
		t.Errorf("missing category header:\n%s", out)
	}
	if !strings.Contains(out, "IIT Bombay has 18 hostels.") {
		t.Errorf("missing answer:\n%s", out)
	}
}

func TestWriteAnswer_TextFlags(t *testing.T) {
	result := &models.PipelineResult{
		Category:         models.CategoryExam,
		WebSearchUsed:    true,
		AutoWebTriggered: true,
		Stream:           models.NewStaticStream("a", "b"),
	}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, result, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "[EXAM] web search, auto, no local results") {
		t.Errorf("flags:\n%s", out)
	}
	if !strings.HasSuffix(out, "ab\n") {
		t.Errorf("streamed text:\n%q", out)
	}
}

func TestWriteAnswer_TextStreamError(t *testing.T) {
	boom := errors.New("reset")
	result := &models.PipelineResult{Stream: models.NewErrorStream(boom)}
	if err := WriteAnswer(&bytes.Buffer{}, result, OutputText); !errors.Is(err, boom) {
		t.Errorf("got %v", err)
	}
}

func TestWriteAnswer_JSON(t *testing.T) {
	result := &models.PipelineResult{
		Category:      models.CategoryComparison,
		WebSearchUsed: true,
		Stream:        models.NewStaticStream("VIT ", "vs ", "Amrita"),
		Entities:      models.Entities{CollegeNames: []string{"VIT", "Amrita"}, ExamNames: []string{}},
	}
	var buf bytes.Buffer
	if err := WriteAnswer(&buf, result, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Answer   string          `json:"answer"`
		Category string          `json:"category_detected"`
		Web      bool            `json:"web_search_used"`
		Entities models.Entities `json:"entities"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Answer != "VIT vs Amrita" || decoded.Category != "COMPARISON" || !decoded.Web {
		t.Errorf("decoded %+v", decoded)
	}
	if len(decoded.Entities.CollegeNames) != 2 {
		t.Errorf("entities %+v", decoded.Entities)
	}
	if result.Stream == nil {
		t.Error("caller's result should not be modified")
	}
}
