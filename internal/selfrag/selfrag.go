// Package selfrag judges whether retrieved documents can answer a query and
// rephrases queries for a second retrieval attempt.
package selfrag

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/degreefyd/assistant/internal/llm"
	"github.com/degreefyd/assistant/internal/models"
	"github.com/degreefyd/assistant/pkg/utils"
)

const (
	judgeDocs         = 3
	judgeSnippetChars = 400
	judgeMaxTokens    = 5

	rephraseMaxTokens   = 40
	rephraseTemperature = 0.3

	// DefaultWebThreshold is the distance below which a document counts as
	// a close match.
	DefaultWebThreshold = 0.5
)

// Verifier runs the relevance and rephrase calls in fast mode.
type Verifier struct {
	client llm.Client
	logger *zap.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Verifier) { v.logger = l }
}

// New creates a Verifier using client.
func New(client llm.Client, opts ...Option) *Verifier {
	v := &Verifier{client: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// CheckRelevance judges docs against query. An empty set is irrelevant
// without a call; unexpected answers and call failures yield partial.
func (v *Verifier) CheckRelevance(ctx context.Context, query string, docs []models.Document, entities []string) models.Verdict {
	if len(docs) == 0 {
		return models.VerdictIrrelevant
	}
	resp, err := v.client.Complete(ctx, llm.FastRequest{
		Prompt:      relevancePrompt(query, docs, entities),
		MaxTokens:   judgeMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		v.logger.Warn("relevance check failed, assuming partial", zap.Error(err))
		return models.VerdictPartial
	}
	verdict, ok := models.ParseVerdict(resp)
	if !ok {
		v.logger.Debug("unexpected relevance verdict", zap.String("response", resp))
		return models.VerdictPartial
	}
	return verdict
}

func relevancePrompt(query string, docs []models.Document, entities []string) string {
	if len(docs) > judgeDocs {
		docs = docs[:judgeDocs]
	}
	snippets := make([]string, len(docs))
	for i, d := range docs {
		snippets[i] = utils.Clip(d.Content, judgeSnippetChars)
	}

	var sb strings.Builder
	sb.WriteString("You are a relevance judge. Given a user query and retrieved document snippets, ")
	sb.WriteString("decide if the documents are useful for answering the query.\n\n")
	fmt.Fprintf(&sb, "Query: %s\n\n", query)
	if len(entities) > 0 {
		fmt.Fprintf(&sb, "Entities the user asked about: %s\n\n", strings.Join(entities, ", "))
	}
	fmt.Fprintf(&sb, "Retrieved snippets:\n%s\n\n", strings.Join(snippets, "\n---\n"))
	sb.WriteString("Reply with EXACTLY one word: relevant, partial, or irrelevant.\n")
	sb.WriteString("- relevant: documents directly answer the query\n")
	sb.WriteString("- partial: documents have some related info but are incomplete\n")
	sb.WriteString("- irrelevant: documents are off-topic or contain no useful information")
	return sb.String()
}

// Rephrase asks for a retrieval-oriented reformulation of query. It returns
// query unchanged when the call fails or the answer is empty; callers treat
// an unchanged query as a signal to skip the second retrieval.
func (v *Verifier) Rephrase(ctx context.Context, query string, category models.Category) string {
	resp, err := v.client.Complete(ctx, llm.FastRequest{
		Prompt:      rephrasePrompt(query, category),
		MaxTokens:   rephraseMaxTokens,
		Temperature: rephraseTemperature,
	})
	if err != nil {
		v.logger.Warn("rephrase failed, keeping original query", zap.Error(err))
		return query
	}
	rephrased := strings.Trim(strings.Trim(strings.TrimSpace(resp), `"`), `'`)
	if rephrased == "" {
		return query
	}
	v.logger.Debug("query rephrased", zap.String("original", query), zap.String("rephrased", rephrased))
	return rephrased
}

func rephrasePrompt(query string, category models.Category) string {
	return fmt.Sprintf("Rephrase the following search query to improve document retrieval for the '%s' category "+
		"in an Indian college/education context. "+
		"Expand abbreviations, add relevant keywords, keep it concise (max 20 words).\n\n"+
		"Original query: %s\n\n"+
		"Rephrased query (return ONLY the rephrased query, nothing else):", category, query)
}

// ShouldUseWebSearch reports whether web augmentation is needed: true unless
// some document has a distance below threshold. Documents without a distance
// are ignored.
func ShouldUseWebSearch(docs []models.Document, threshold float64) bool {
	for _, d := range docs {
		if d.Distance != nil && *d.Distance < threshold {
			return false
		}
	}
	return true
}
