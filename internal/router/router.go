// Package router classifies queries into categories and extracts the named
// entities used for retrieval.
package router

import (
	"context"

	"go.uber.org/zap"

	"github.com/degreefyd/assistant/internal/llm"
	"github.com/degreefyd/assistant/internal/models"
)

const classifyMaxTokens = 200

// Router merges two opinions: the pattern matcher decides the category when
// it fires, the classification call supplies the category otherwise and
// always supplies the entities.
type Router struct {
	client llm.Client
	logger *zap.Logger
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// New creates a Router classifying with client.
func New(client llm.Client, opts ...Option) *Router {
	r := &Router{client: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Route classifies query. It never fails: if the classification call fails
// the pattern category (or GENERAL) is returned with no entities.
func (r *Router) Route(ctx context.Context, query string) models.RouteResult {
	fast, matched := FastRoute(query)

	resp, err := r.client.Complete(ctx, llm.FastRequest{
		Prompt:      Prompt(query),
		MaxTokens:   classifyMaxTokens,
		Temperature: 0,
	})
	if err != nil {
		r.logger.Warn("classification failed, using pattern route",
			zap.String("category", fast.String()),
			zap.Bool("pattern_matched", matched),
			zap.Error(err),
		)
		return models.RouteResult{Category: fast}
	}
	return Merge(fast, matched, ParseResponse(resp))
}

// Merge applies the precedence rule: the pattern category wins when matched,
// entities always come from the classifier.
func Merge(fast models.Category, matched bool, classified models.RouteResult) models.RouteResult {
	if matched {
		classified.Category = fast
	}
	return classified
}
