// Package config provides configuration loading and structs for the DegreeFYD assistant.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file.
const (
	EnvLLMAPIKey       = "GROQ_API_KEY"
	EnvLLMBaseURL      = "DEGREEFYD_LLM_BASE_URL"
	EnvEmbeddingAPIKey = "DEGREEFYD_EMBEDDING_API_KEY"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the structured database and search indices.
type StorageConfig struct {
	DatabasePath    string `yaml:"database_path"`
	VectorIndexPath string `yaml:"vector_index_path"`
	BleveIndexPath  string `yaml:"bleve_index_path"`
}

// LLMConfig holds settings for the hosted chat-completion service. Fast
// mode is used for classification, verification and rephrasing; answer
// mode for final generation.
type LLMConfig struct {
	BaseURL           string        `yaml:"base_url"`
	APIKey            string        `yaml:"api_key"`
	FastModel         string        `yaml:"fast_model"`
	AnswerModel       string        `yaml:"answer_model"`
	AnswerTemperature float64       `yaml:"answer_temperature"`
	AnswerMaxTokens   int           `yaml:"answer_max_tokens"`
	FastTimeout       time.Duration `yaml:"fast_timeout"`
	AnswerTimeout     time.Duration `yaml:"answer_timeout"`
}

// EmbeddingConfig holds embedder settings. Provider is "openai" for a hosted
// embeddings endpoint or "hash" for the deterministic local embedder.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	CacheSize  int    `yaml:"cache_size"`
	// Timeout bounds each embeddings request; zero uses the client default.
	Timeout time.Duration `yaml:"timeout"`
}

// SearchConfig holds semantic search and chunking settings.
type SearchConfig struct {
	Backend              string  `yaml:"backend"`
	TopK                 int     `yaml:"top_k"`
	WebDistanceThreshold float64 `yaml:"web_distance_threshold"`
	KeywordWeight        float64 `yaml:"keyword_weight"`
	SemanticWeight       float64 `yaml:"semantic_weight"`
	ChunkSize            int     `yaml:"chunk_size"`
	ChunkOverlap         int     `yaml:"chunk_overlap"`
	CorpusPath           string  `yaml:"corpus_path"`
	// WatchCorpus re-indexes CorpusPath when it changes while serving.
	WatchCorpus bool `yaml:"watch_corpus"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	CacheCapacity int `yaml:"cache_capacity"`
	TraceCapacity int `yaml:"trace_capacity"`
}

// Search backends.
const (
	BackendVector = "vector"
	BackendBleve  = "bleve"
	BackendHybrid = "hybrid"
)

// Load reads and parses the config file at path, expands paths, applies defaults
// and then environment overrides. A .env file next to the config, if present,
// is loaded first without overriding variables already set.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.VectorIndexPath = expandPath(cfg.Storage.VectorIndexPath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	if cfg.Search.CorpusPath != "" {
		cfg.Search.CorpusPath = expandPath(cfg.Search.CorpusPath, configDir)
	}

	if err := LoadDotEnv(filepath.Join(configDir, ".env")); err != nil {
		return nil, err
	}
	ApplyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load %s: %w", path, err)
}

// ApplyEnv overrides secrets and endpoints from the environment.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvLLMAPIKey); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv(EnvLLMBaseURL); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := os.Getenv(EnvEmbeddingAPIKey); v != "" {
		cfg.Embedding.APIKey = v
	}
	if cfg.Embedding.APIKey == "" && cfg.Embedding.Provider == "openai" {
		cfg.Embedding.APIKey = cfg.LLM.APIKey
	}
}

// Validate rejects values that cannot be served.
func (c *Config) Validate() error {
	switch c.Search.Backend {
	case BackendVector, BackendBleve, BackendHybrid:
	default:
		return fmt.Errorf("unknown search backend %q", c.Search.Backend)
	}
	switch c.Embedding.Provider {
	case "openai", "hash":
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
	if c.Search.ChunkOverlap >= c.Search.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Search.ChunkOverlap, c.Search.ChunkSize)
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
