// Package pipeline runs a query through routing, retrieval, relevance
// verification, context building and answer generation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/degreefyd/assistant/internal/builder"
	"github.com/degreefyd/assistant/internal/cache"
	"github.com/degreefyd/assistant/internal/llm"
	"github.com/degreefyd/assistant/internal/metrics"
	"github.com/degreefyd/assistant/internal/models"
	"github.com/degreefyd/assistant/internal/semantic"
	"github.com/degreefyd/assistant/internal/trace"
	"github.com/degreefyd/assistant/pkg/utils"
)

// ErrEmptyQuery is returned for blank queries.
var ErrEmptyQuery = errors.New("pipeline: empty query")

const defaultRetrievalK = 5

// Router classifies a query.
type Router interface {
	Route(ctx context.Context, query string) models.RouteResult
}

// Verifier judges retrieved documents and rephrases queries.
type Verifier interface {
	CheckRelevance(ctx context.Context, query string, docs []models.Document, entities []string) models.Verdict
	Rephrase(ctx context.Context, query string, category models.Category) string
}

// ContextBuilder renders the evidence bundle for a routed query.
type ContextBuilder interface {
	Build(ctx context.Context, req builder.Request) models.ContextBundle
}

// Pipeline is the answer orchestrator. It is safe for concurrent use.
type Pipeline struct {
	router   Router
	verifier Verifier
	builders ContextBuilder
	search   semantic.Searcher
	client   llm.Client
	cache    *cache.ResultCache
	traces   *trace.Log
	topK     int
	logger   *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithCache sets the result cache. Without one nothing is cached.
func WithCache(c *cache.ResultCache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithTraceLog sets the retrieval trace log.
func WithTraceLog(l *trace.Log) Option {
	return func(p *Pipeline) { p.traces = l }
}

// WithRetrievalK sets how many documents each raw retrieval asks for.
func WithRetrievalK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// New creates a pipeline over the given services.
func New(router Router, verifier Verifier, builders ContextBuilder, search semantic.Searcher, client llm.Client, opts ...Option) *Pipeline {
	p := &Pipeline{
		router:   router,
		verifier: verifier,
		builders: builders,
		search:   search,
		client:   client,
		topK:     defaultRetrievalK,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.traces == nil {
		p.traces = trace.New(trace.DefaultCapacity)
	}
	return p
}

// Process answers query. Non-streaming runs consult and fill the result
// cache; streaming runs return a result whose Stream must be consumed and
// closed by the caller. A generation failure in a non-streaming run returns
// the routed result together with the error; in a streaming run it surfaces
// through the stream's Err.
func (p *Pipeline) Process(ctx context.Context, query string, web, stream bool) (*models.PipelineResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	requestID := uuid.NewString()
	log := p.logger.With(zap.String("request_id", requestID))

	if !stream && p.cache != nil {
		if cached, ok := p.cache.Get(query, web); ok {
			metrics.IncCache(true)
			log.Info("cache hit", zap.String("query", query))
			return cached, nil
		}
		metrics.IncCache(false)
	}

	route := p.router.Route(ctx, query)
	metrics.IncRoute(route.Category.String())
	log.Info("routed",
		zap.String("query", query),
		zap.Stringer("category", route.Category),
		zap.Strings("colleges", route.CollegeNames),
		zap.Strings("exams", route.ExamNames),
		zap.String("location", route.Location),
		zap.String("rank_score", route.RankScore),
	)

	entities := route.Entities()
	activeQuery := query
	docs := p.retrieve(ctx, log, requestID, query, route, 1)
	verdict := p.verifier.CheckRelevance(ctx, query, docs, entities)
	metrics.IncVerdict("1", verdict.String())
	log.Info("relevance checked", zap.Int("attempt", 1), zap.Stringer("verdict", verdict), zap.Int("documents", len(docs)))

	var autoWeb, outOfScope bool
	if !verdict.Usable() {
		usable := false
		rephrased := p.verifier.Rephrase(ctx, query, route.Category)
		if rephrased != query {
			docs2 := p.retrieve(ctx, log, requestID, rephrased, route, 2)
			verdict2 := p.verifier.CheckRelevance(ctx, rephrased, docs2, entities)
			metrics.IncVerdict("2", verdict2.String())
			log.Info("relevance checked", zap.Int("attempt", 2), zap.Stringer("verdict", verdict2),
				zap.Int("documents", len(docs2)), zap.String("rephrased", rephrased))
			if verdict2.Usable() {
				usable = true
				activeQuery = rephrased
				docs = docs2
			}
		} else {
			log.Info("rephrase returned the original query, skipping second retrieval")
		}
		if !usable {
			if route.Category == models.CategoryGeneral {
				outOfScope = true
			} else {
				autoWeb = true
			}
		}
	}

	result := &models.PipelineResult{
		Category: route.Category,
		Entities: models.EntitiesOf(route),
	}

	if outOfScope {
		result.OutOfScope = true
		if stream {
			result.Stream = models.NewStaticStream(OutOfScopeMessage)
		} else {
			result.Text = OutOfScopeMessage
		}
		metrics.IncOutcome(metrics.OutcomeOutOfScope)
		log.Info("out of scope, returning redirect")
		return result, nil
	}

	bundle := p.builders.Build(ctx, builder.Request{Query: activeQuery, Route: route, Prefetched: docs})
	useWeb := web || autoWeb
	result.HasLocalResults = bundle.HasLocalResults
	result.AutoWebTriggered = autoWeb
	result.WebSearchUsed = useWeb
	log.Info("context built",
		zap.Bool("has_local_results", bundle.HasLocalResults),
		zap.Bool("needs_web_search", bundle.NeedsWebSearch),
		zap.Int("context_chars", len(bundle.Text)),
		zap.Bool("web_toggle", web),
		zap.Bool("auto_web", autoWeb),
	)

	req := llm.GenerateRequest{Query: activeQuery, Context: bundle.Text, Web: useWeb}
	outcome := metrics.OutcomeAnswered
	if autoWeb {
		outcome = metrics.OutcomeAutoWeb
	}

	if stream {
		result.Stream = &observedStream{
			Stream: p.client.Stream(ctx, req),
			done: func(err error) {
				if err != nil {
					metrics.IncOutcome(metrics.OutcomeError)
					log.Error("answer stream failed", zap.Error(err))
					return
				}
				metrics.IncOutcome(outcome)
				log.Info("answer streamed")
			},
		}
		return result, nil
	}

	text, err := p.client.Generate(ctx, req)
	if err != nil {
		metrics.IncOutcome(metrics.OutcomeError)
		log.Error("answer generation failed", zap.Error(err))
		return result, fmt.Errorf("generate answer: %w", err)
	}
	result.Text = text
	if p.cache != nil {
		p.cache.Put(query, web, result)
	}
	metrics.IncOutcome(outcome)
	log.Info("answered", zap.Bool("web_search_used", useWeb), zap.Bool("auto_web", autoWeb))
	return result, nil
}

// retrieve fetches the raw documents for one attempt. The query is prefixed
// with the college names, or else the exam names, and COLLEGE results are
// narrowed to documents naming a requested college when any do. Search
// failures count as no documents.
func (p *Pipeline) retrieve(ctx context.Context, log *zap.Logger, requestID, query string, route models.RouteResult, attempt int) []models.Document {
	text := query
	if len(route.CollegeNames) > 0 {
		text = strings.Join(route.CollegeNames, " ") + " " + query
	} else if len(route.ExamNames) > 0 {
		text = strings.Join(route.ExamNames, " ") + " " + query
	}

	start := time.Now()
	docs, err := p.search.Search(ctx, text, docTypeFor(route.Category), p.topK)
	if err != nil {
		log.Warn("retrieval failed", zap.Int("attempt", attempt), zap.Error(err))
		docs = nil
	}
	if route.Category == models.CategoryCollege && len(route.CollegeNames) > 0 {
		docs = mentioningAny(docs, route.CollegeNames)
	}
	metrics.ObserveRetrieval(route.Category.String(), start, len(docs))

	entry := trace.NewEntry(requestID, query, route.Category, attempt, docs)
	p.traces.Add(entry)
	log.Info("retrieved",
		zap.Int("attempt", attempt),
		zap.String("enriched_query", text),
		zap.Int("documents", len(docs)),
		zap.Strings("sources", entry.DocSources),
	)
	return docs
}

func docTypeFor(c models.Category) string {
	switch c {
	case models.CategoryCollege, models.CategoryPredictor, models.CategoryTopColleges:
		return models.DocTypeCollege
	case models.CategoryExam:
		return models.DocTypeExam
	case models.CategoryComparison:
		return models.DocTypeComparison
	case models.CategoryGeneral:
		return ""
	default:
		return ""
	}
}

// mentioningAny keeps docs whose content or URL contains one of names,
// returning docs unchanged when none match.
func mentioningAny(docs []models.Document, names []string) []models.Document {
	var kept []models.Document
	for _, d := range docs {
		for _, n := range names {
			if utils.ContainsFold(d.Content, n) || utils.ContainsFold(d.Metadata.URL, n) {
				kept = append(kept, d)
				break
			}
		}
	}
	if len(kept) == 0 {
		return docs
	}
	return kept
}

// PurgeCache drops every cached result, e.g. after the corpus is reloaded.
func (p *Pipeline) PurgeCache() {
	if p.cache != nil {
		p.cache.Purge()
	}
}

// CachedQueries returns the number of cached results.
func (p *Pipeline) CachedQueries() int {
	if p.cache == nil {
		return 0
	}
	return p.cache.Len()
}

// Traces returns the trace log.
func (p *Pipeline) Traces() *trace.Log {
	return p.traces
}
