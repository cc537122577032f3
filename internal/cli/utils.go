// Package cli provides CLI output helpers for the DegreeFYD assistant.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/degreefyd/assistant/internal/models"
)

// OutputFormat is the format for answer output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// WriteAnswer writes a pipeline result to w. In text mode a streaming
// result is written fragment by fragment as it arrives; in JSON mode the
// stream is drained first and the full answer is encoded. The stream is
// closed either way.
func WriteAnswer(w io.Writer, result *models.PipelineResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		if result.Streaming() {
			text, err := Drain(result.Stream)
			if err != nil {
				return err
			}
			copied := *result
			copied.Text = text
			copied.Stream = nil
			result = &copied
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		return writeAnswerText(w, result)
	}
}

func writeAnswerText(w io.Writer, result *models.PipelineResult) error {
	fmt.Fprintf(w, "\n[%s]%s\n", result.Category, answerFlags(result))
	fmt.Fprintln(w, "─────────────────────────────────────────────────────────")
	if !result.Streaming() {
		fmt.Fprintln(w, result.Text)
		return nil
	}
	defer result.Stream.Close()
	for result.Stream.Next() {
		if _, err := io.WriteString(w, result.Stream.Current()); err != nil {
			return err
		}
	}
	fmt.Fprintln(w)
	return result.Stream.Err()
}

func answerFlags(r *models.PipelineResult) string {
	var flags []string
	if r.OutOfScope {
		flags = append(flags, "out of scope")
	}
	if r.WebSearchUsed {
		flags = append(flags, "web search")
	}
	if r.AutoWebTriggered {
		flags = append(flags, "auto")
	}
	if !r.HasLocalResults && !r.OutOfScope {
		flags = append(flags, "no local results")
	}
	if len(flags) == 0 {
		return ""
	}
	return " " + strings.Join(flags, ", ")
}

// Drain reads a stream to the end, closes it and returns the joined text.
func Drain(s models.Stream) (string, error) {
	defer s.Close()
	var sb strings.Builder
	for s.Next() {
		sb.WriteString(s.Current())
	}
	return sb.String(), s.Err()
}
