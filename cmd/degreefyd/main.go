// Package main is the DegreeFYD assistant CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/degreefyd/assistant/internal/cli"
	"github.com/degreefyd/assistant/internal/config"
	"github.com/degreefyd/assistant/internal/indexer"
	"github.com/degreefyd/assistant/internal/metrics"
	"github.com/degreefyd/assistant/internal/models"
	"github.com/degreefyd/assistant/internal/semantic"
	"github.com/degreefyd/assistant/internal/server"
	"github.com/degreefyd/assistant/internal/watcher"
	"github.com/degreefyd/assistant/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/degreefyd/config.yaml"
	reloadTimeout     = semantic.DefaultBuildTimeout
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// When neither exists, built-in defaults are used so the CLI works without a config file.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			if err := config.LoadDotEnv(".env"); err != nil {
				return nil, "", err
			}
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "ask":
		runAsk()
	case "index":
		runIndex()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("degreefyd version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config and creates the logger, exiting on failure.
func setup(configPath string, debugFlag bool) (*config.Config, *zap.Logger) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.Debug("config loaded",
		zap.String("config_path", resolved),
		zap.Bool("debug", debugMode),
		zap.String("backend", cfg.Search.Backend),
	)
	return cfg, logger
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	metrics.Register()

	logger.Info("warming up semantic index")
	if err := components.Index.Warmup(context.Background()); err != nil {
		logger.Warn("semantic index warmup failed; retrieval will return no documents", zap.Error(err))
	}

	if cfg.Search.WatchCorpus && cfg.Search.CorpusPath != "" {
		w := watchCorpus(components, cfg, logger)
		if err := w.Start(context.Background()); err != nil {
			logger.Warn("corpus watcher not started", zap.Error(err))
		} else {
			defer w.Stop()
		}
	}

	srv := server.NewServer(components.Pipeline, &cfg.Server, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// watchCorpus returns a watcher that force-reloads the corpus into the live
// index and drops cached answers built from the old content.
func watchCorpus(c *Components, cfg *config.Config, logger *zap.Logger) *watcher.Watcher {
	return watcher.NewWatcher(cfg.Search.CorpusPath, func(path string) {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		ix := indexer.NewIndexer(c.Index, cfg.Search.ChunkSize, cfg.Search.ChunkOverlap, indexer.WithLogger(logger))
		stats, err := ix.IndexFile(ctx, path, true)
		if err != nil {
			logger.Error("corpus reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		c.Pipeline.PurgeCache()
		logger.Info("corpus reloaded", zap.Int("records", stats.Records), zap.Int("chunks", stats.Chunks))
	}, watcher.WithLogger(logger))
}

// printAskUsage prints ask subcommand usage.
func printAskUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: degreefyd ask [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  degreefyd ask fees at IIT Bombay
  degreefyd ask --web "JEE Main 2026 exam date"
  degreefyd ask --stream compare IIM Indore and IIM Kozhikode
  degreefyd ask --output json "top engineering colleges in Pune"
  degreefyd ask --server http://localhost:8000 "NEET syllabus"
`)
}

// buildQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// argsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument, so "degreefyd ask \"query\" --web"
// would otherwise leave --web unparsed.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runAsk() {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "ask a running server instead of opening the indices directly")
	web := fs.Bool("web", false, "enable web search for the answer")
	stream := fs.Bool("stream", false, "print the answer as it is generated")
	outputFormat := fs.String("output", "text", "output format: text (human-readable) or json (parseable)")
	debug := fs.Bool("debug", false, "enable debug logging")
	fs.Usage = func() { printAskUsage(fs) }
	_ = fs.Parse(argsReorder(os.Args[2:]))

	query := buildQuery(fs.Args())
	if query == "" {
		printAskUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serverURL != "" {
		if *stream {
			fmt.Fprintln(os.Stderr, "--stream is not supported with --server")
			os.Exit(1)
		}
		result, err := askViaHTTP(*serverURL, query, *web)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
			os.Exit(1)
		}
		if err := cli.WriteAnswer(os.Stdout, result, format); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	result, err := components.Pipeline.Process(ctx, query, *web, *stream)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ask failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteAnswer(os.Stdout, result, format); err != nil {
		fmt.Fprintf(os.Stderr, "Answer failed: %v\n", err)
		os.Exit(1)
	}
}

func askViaHTTP(serverURL, query string, web bool) (*models.PipelineResult, error) {
	body, err := json.Marshal(server.ChatRequest{Query: query, WebSearchEnabled: web})
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(strings.TrimRight(serverURL, "/")+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var result models.PipelineResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	force := fs.Bool("force", false, "load the corpus even if the index already has documents")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(argsReorder(os.Args[2:]))

	cfg, logger := setup(*configPath, *debug)
	defer logger.Sync()

	path := cfg.Search.CorpusPath
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if path == "" {
		fmt.Println("Usage: degreefyd index [flags] <corpus.jsonl>")
		os.Exit(1)
	}

	// The corpus is loaded explicitly below, not as part of opening the index.
	cfg.Search.CorpusPath = ""
	ctx := context.Background()
	idx, err := openIndex(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open index", zap.Error(err))
	}
	defer idx.Close()

	ix := indexer.NewIndexer(idx, cfg.Search.ChunkSize, cfg.Search.ChunkOverlap, indexer.WithLogger(logger))
	stats, err := ix.IndexFile(ctx, path, *force)
	if err != nil {
		fmt.Printf("Indexing failed: %v\n", err)
		os.Exit(1)
	}
	if s, ok := idx.(saver); ok {
		if err := s.Save(cfg.Storage.VectorIndexPath); err != nil {
			fmt.Printf("Saving index failed: %v\n", err)
			os.Exit(1)
		}
	}
	if stats.Skipped {
		fmt.Printf("Index already has %d chunks; use --force to load %s again\n", idx.Count(), path)
		return
	}
	fmt.Printf("Indexed %d records (%d chunks, %d malformed lines skipped) from %s\n",
		stats.Records, stats.Chunks, stats.Malformed, path)
}

// statusResponse is the shape of the status output.
type statusResponse struct {
	Backend        string            `json:"backend"`
	IndexDocuments int               `json:"index_documents"`
	Colleges       int64             `json:"colleges"`
	Exams          int64             `json:"exams"`
	Comparisons    int64             `json:"comparisons"`
	Config         map[string]string `json:"config,omitempty"`
}

// healthResponse is the shape of GET /health.
type healthResponse struct {
	Status        string `json:"status"`
	CachedQueries int    `json:"cached_queries"`
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "check a running server's health instead of opening the indices")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *serverURL != "" {
		health, err := healthViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		if format == cli.OutputJSON {
			_ = json.NewEncoder(os.Stdout).Encode(health)
			return
		}
		fmt.Printf("status:          %s\n", health.Status)
		fmt.Printf("cached_queries:  %d\n", health.CachedQueries)
		return
	}

	cfg, logger := setup(*configPath, false)
	defer logger.Sync()
	status, err := localStatus(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	if format == cli.OutputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(status)
		return
	}
	fmt.Printf("backend:          %s\n", status.Backend)
	fmt.Printf("index_documents:  %d\n", status.IndexDocuments)
	fmt.Printf("colleges:         %d\n", status.Colleges)
	fmt.Printf("exams:            %d\n", status.Exams)
	fmt.Printf("comparisons:      %d\n", status.Comparisons)
	for _, k := range []string{"database_path", "vector_index_path", "bleve_index_path", "fast_model", "answer_model"} {
		if v := status.Config[k]; v != "" {
			fmt.Printf("%-18s%s\n", k+":", v)
		}
	}
}

func localStatus(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*statusResponse, error) {
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer components.Close()

	if err := components.Index.Warmup(ctx); err != nil {
		logger.Warn("semantic index unavailable", zap.Error(err))
	}
	counts, err := components.Storage.Counts(ctx)
	if err != nil {
		return nil, err
	}
	return &statusResponse{
		Backend:        cfg.Search.Backend,
		IndexDocuments: components.Index.Count(),
		Colleges:       counts.Colleges,
		Exams:          counts.Exams,
		Comparisons:    counts.Comparisons,
		Config: map[string]string{
			"database_path":     cfg.Storage.DatabasePath,
			"vector_index_path": cfg.Storage.VectorIndexPath,
			"bleve_index_path":  cfg.Storage.BleveIndexPath,
			"fast_model":        cfg.LLM.FastModel,
			"answer_model":      cfg.LLM.AnswerModel,
		},
	}, nil
}

func healthViaHTTP(serverURL string) (*healthResponse, error) {
	resp, err := http.Get(strings.TrimRight(serverURL, "/") + "/health")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	var h healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &h, nil
}

func printUsage() {
	fmt.Println(`degreefyd - Indian college and entrance exam assistant

Usage:
  degreefyd server [flags]            Start the HTTP server
  degreefyd ask [flags] <query>       Answer a question
  degreefyd index [flags] <corpus>    Load a JSONL page corpus into the semantic index
  degreefyd status [flags]            Show store/index status
  degreefyd version                   Show version
  degreefyd help                      Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/degreefyd/config.yaml)
  --debug            Enable debug logging

Ask Flags:
  --config string    Config file path
  --server string    Ask a running server (e.g. http://localhost:8000) instead of opening the indices
  --web              Enable web search for the answer
  --stream           Print the answer as it is generated
  --output string    Output format: text or json (default: text)

Index Flags:
  --config string    Config file path
  --force            Load the corpus even if the index already has documents

Status Flags:
  --config string    Config file path
  --server string    Check a running server's health instead
  --output string    Output format: text or json (default: text)

Environment:
  GROQ_API_KEY                  API key for the chat-completion service
  DEGREEFYD_LLM_BASE_URL        Override the chat-completion endpoint
  DEGREEFYD_EMBEDDING_API_KEY   API key for the embeddings endpoint

Examples:
  degreefyd server
  degreefyd index data/pages.jsonl
  degreefyd ask "fees at VIT Vellore"
  degreefyd ask --web --stream "JEE Main 2026 exam date"
  degreefyd status --output json`)
}
