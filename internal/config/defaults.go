package config

import "time"

// DefaultLLMBaseURL is the Groq OpenAI-compatible endpoint.
const DefaultLLMBaseURL = "https://api.groq.com/openai/v1"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/degreefyd/data/degreefyd.db"
	}
	if cfg.Storage.VectorIndexPath == "" {
		cfg.Storage.VectorIndexPath = "/usr/local/var/degreefyd/data/indices/vector"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/degreefyd/data/indices/bleve"
	}

	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultLLMBaseURL
	}
	if cfg.LLM.FastModel == "" {
		cfg.LLM.FastModel = "llama-3.1-8b-instant"
	}
	if cfg.LLM.AnswerModel == "" {
		cfg.LLM.AnswerModel = "compound-beta"
	}
	if cfg.LLM.AnswerTemperature == 0 {
		cfg.LLM.AnswerTemperature = 0.7
	}
	if cfg.LLM.AnswerMaxTokens == 0 {
		cfg.LLM.AnswerMaxTokens = 1024
	}
	if cfg.LLM.FastTimeout == 0 {
		cfg.LLM.FastTimeout = 15 * time.Second
	}
	if cfg.LLM.AnswerTimeout == 0 {
		cfg.LLM.AnswerTimeout = 90 * time.Second
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "hash"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}

	if cfg.Search.Backend == "" {
		cfg.Search.Backend = BackendVector
	}
	if cfg.Search.TopK == 0 {
		cfg.Search.TopK = 5
	}
	if cfg.Search.WebDistanceThreshold == 0 {
		cfg.Search.WebDistanceThreshold = 0.5
	}
	if cfg.Search.KeywordWeight == 0 && cfg.Search.SemanticWeight == 0 {
		cfg.Search.KeywordWeight = 0.3
		cfg.Search.SemanticWeight = 0.7
	}
	if cfg.Search.ChunkSize == 0 {
		cfg.Search.ChunkSize = 1000
	}
	if cfg.Search.ChunkOverlap == 0 {
		cfg.Search.ChunkOverlap = 200
	}

	if cfg.Pipeline.CacheCapacity == 0 {
		cfg.Pipeline.CacheCapacity = 128
	}
	if cfg.Pipeline.TraceCapacity == 0 {
		cfg.Pipeline.TraceCapacity = 50
	}
}

// Default returns a config with every default applied and environment
// overrides in place. Used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	ApplyEnv(cfg)
	return cfg
}
