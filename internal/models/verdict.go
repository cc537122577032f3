package models

import "strings"

// Verdict is the relevance judgement for a retrieved document set.
type Verdict int

const (
	VerdictPartial Verdict = iota
	VerdictRelevant
	VerdictIrrelevant
)

func (v Verdict) String() string {
	switch v {
	case VerdictRelevant:
		return "relevant"
	case VerdictPartial:
		return "partial"
	case VerdictIrrelevant:
		return "irrelevant"
	default:
		return "unknown"
	}
}

// Usable reports whether the verdict allows the retrieved documents to be used.
func (v Verdict) Usable() bool {
	switch v {
	case VerdictRelevant, VerdictPartial:
		return true
	case VerdictIrrelevant:
		return false
	default:
		return false
	}
}

// ParseVerdict parses an exact verdict token (case-insensitive, trimmed).
func ParseVerdict(s string) (Verdict, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "relevant":
		return VerdictRelevant, true
	case "partial":
		return VerdictPartial, true
	case "irrelevant":
		return VerdictIrrelevant, true
	default:
		return VerdictPartial, false
	}
}
