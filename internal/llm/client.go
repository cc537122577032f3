// Package llm wraps the hosted chat-completion service used for routing,
// relevance judging, rephrasing and answer generation.
package llm

import (
	"context"
	"errors"

	"github.com/degreefyd/assistant/internal/models"
)

// ErrEmptyResponse is returned when the service answers with no choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// FastRequest is a low-token completion of a single user prompt.
type FastRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// GenerateRequest is a full answer generation. Context is the evidence
// bundle; an empty Context selects the no-context system prompt. Web enables
// the service's web search tool.
type GenerateRequest struct {
	Query   string
	Context string
	Web     bool
}

// Client is the generation service.
type Client interface {
	// Complete runs a fast-mode completion and returns the raw text.
	Complete(ctx context.Context, req FastRequest) (string, error)
	// Generate runs a full generation and returns the answer text.
	Generate(ctx context.Context, req GenerateRequest) (string, error)
	// Stream runs a full generation as a fragment stream. Failures to open
	// the stream are reported through the stream's Err.
	Stream(ctx context.Context, req GenerateRequest) models.Stream
}
