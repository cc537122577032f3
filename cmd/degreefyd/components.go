package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/degreefyd/assistant/internal/builder"
	"github.com/degreefyd/assistant/internal/cache"
	"github.com/degreefyd/assistant/internal/config"
	"github.com/degreefyd/assistant/internal/embedding"
	"github.com/degreefyd/assistant/internal/indexer"
	"github.com/degreefyd/assistant/internal/llm"
	"github.com/degreefyd/assistant/internal/pipeline"
	"github.com/degreefyd/assistant/internal/router"
	"github.com/degreefyd/assistant/internal/selfrag"
	"github.com/degreefyd/assistant/internal/semantic"
	"github.com/degreefyd/assistant/internal/storage"
	"github.com/degreefyd/assistant/internal/trace"
)

// saver is implemented by indices that persist to a directory.
type saver interface {
	Save(dir string) error
}

// Components holds initialized services.
type Components struct {
	Storage  storage.Store
	Index    *semantic.Lazy
	Client   llm.Client
	Pipeline *pipeline.Pipeline

	cfg    *config.Config
	logger *zap.Logger
}

// Close persists the semantic index, if it was built, and releases resources.
func (c *Components) Close() {
	if c.Index != nil {
		if idx, ok := c.Index.Built(); ok {
			if s, ok := idx.(saver); ok {
				if err := s.Save(c.cfg.Storage.VectorIndexPath); err != nil {
					c.logger.Warn("vector index save failed",
						zap.String("path", c.cfg.Storage.VectorIndexPath), zap.Error(err))
				}
			}
		}
		_ = c.Index.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func newEmbedder(cfg *config.EmbeddingConfig) (embedding.Embedder, error) {
	var inner embedding.Embedder
	switch cfg.Provider {
	case "openai":
		opts := []embedding.OpenAIOption{embedding.WithAPIKey(cfg.APIKey), embedding.WithTimeout(cfg.Timeout)}
		if cfg.BaseURL != "" {
			opts = append(opts, embedding.WithBaseURL(cfg.BaseURL))
		}
		e, err := embedding.NewOpenAIEmbedder(cfg.Model, cfg.Dimensions, opts...)
		if err != nil {
			return nil, err
		}
		inner = e
	default:
		inner = embedding.NewMockEmbedder(cfg.Dimensions)
	}
	return embedding.NewCachedEmbedder(inner, cfg.CacheSize)
}

// openIndex opens the configured search backend, restoring a saved vector
// index and loading the corpus when the index is still empty.
func openIndex(ctx context.Context, cfg *config.Config, logger *zap.Logger) (semantic.Index, error) {
	var idx semantic.Index
	switch cfg.Search.Backend {
	case config.BackendBleve:
		b, err := semantic.NewBleveSearcher(cfg.Storage.BleveIndexPath)
		if err != nil {
			return nil, err
		}
		idx = b
	case config.BackendVector, config.BackendHybrid:
		embedder, err := newEmbedder(&cfg.Embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize embedder: %w", err)
		}
		v, err := semantic.NewVectorSearcher(embedder)
		if err != nil {
			return nil, err
		}
		if err := v.Load(cfg.Storage.VectorIndexPath); err != nil {
			logger.Warn("vector index load skipped (re-index the corpus)",
				zap.String("path", cfg.Storage.VectorIndexPath), zap.Error(err))
		}
		idx = v
		if cfg.Search.Backend == config.BackendHybrid {
			b, err := semantic.NewBleveSearcher(cfg.Storage.BleveIndexPath)
			if err != nil {
				_ = v.Close()
				return nil, err
			}
			idx = semantic.NewHybridSearcher(v, b, cfg.Search.KeywordWeight, cfg.Search.SemanticWeight)
		}
	default:
		return nil, fmt.Errorf("unknown search backend %q", cfg.Search.Backend)
	}

	if cfg.Search.CorpusPath != "" && idx.Count() == 0 {
		ix := indexer.NewIndexer(idx, cfg.Search.ChunkSize, cfg.Search.ChunkOverlap, indexer.WithLogger(logger))
		if _, err := ix.IndexFile(ctx, cfg.Search.CorpusPath, false); err != nil {
			logger.Warn("corpus load failed", zap.String("path", cfg.Search.CorpusPath), zap.Error(err))
		}
	}
	logger.Info("semantic index ready",
		zap.String("backend", cfg.Search.Backend),
		zap.Int("documents", idx.Count()),
	)
	return idx, nil
}

func newLLMClient(cfg *config.LLMConfig, logger *zap.Logger) llm.Client {
	if cfg.APIKey == "" {
		logger.Warn("no LLM API key configured; set " + config.EnvLLMAPIKey)
	}
	return llm.NewOpenAIClient(
		llm.WithAPIKey(cfg.APIKey),
		llm.WithBaseURL(cfg.BaseURL),
		llm.WithModels(cfg.FastModel, cfg.AnswerModel),
		llm.WithAnswerSampling(cfg.AnswerTemperature, cfg.AnswerMaxTokens),
		llm.WithTimeouts(cfg.FastTimeout, cfg.AnswerTimeout),
	)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	index := semantic.NewLazy(func(ctx context.Context) (semantic.Index, error) {
		return openIndex(ctx, cfg, logger)
	})
	client := newLLMClient(&cfg.LLM, logger)

	results, err := cache.New(cfg.Pipeline.CacheCapacity)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize result cache: %w", err)
	}

	builders := builder.New(store, index,
		builder.WithLogger(logger),
		builder.WithTopK(cfg.Search.TopK),
		builder.WithWebThreshold(cfg.Search.WebDistanceThreshold),
	)
	p := pipeline.New(
		router.New(client, router.WithLogger(logger)),
		selfrag.New(client, selfrag.WithLogger(logger)),
		builders,
		index,
		client,
		pipeline.WithLogger(logger),
		pipeline.WithCache(results),
		pipeline.WithTraceLog(trace.New(cfg.Pipeline.TraceCapacity)),
		pipeline.WithRetrievalK(cfg.Search.TopK),
	)

	return &Components{
		Storage:  store,
		Index:    index,
		Client:   client,
		Pipeline: p,
		cfg:      cfg,
		logger:   logger,
	}, nil
}
