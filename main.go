// Package main is the entry point for the mcp-prompt-dedup server.
// It wires together all dependencies and starts the MCP server.
//
// This file is intentionally minimal - all business logic lives in internal/.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bad33ndj3/mcp-prompt-dedup/internal/dedup"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/domain"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/embedding"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/httpapi"
	mcphandlers "github.com/bad33ndj3/mcp-prompt-dedup/internal/mcp"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/prompts"
	"github.com/bad33ndj3/mcp-prompt-dedup/internal/store"
)

const (
	serverName     = "mcp-prompt-dedup"
	serverVersion  = "v0.1.0"
	defaultDataDir = ".prompt-dedup"
)

// setupLogger creates an slog logger that writes to a debug file in the data directory.
// File format: debug-YYYY-MM-DD.txt
func setupLogger(dataDir string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(dataDir, fmt.Sprintf("debug-%s.txt", date))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}

	handler := slog.NewTextHandler(file, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	return slog.New(handler), file, nil
}

func main() {
	// IMPORTANT: MCP stdio servers must log to stderr only (for standard log package).
	log.SetOutput(os.Stderr)

	defaults := dedup.DefaultConfig()
	embedDefaults := embedding.DefaultConfig()

	// --- 0. Parse flags ---
	dataDir := flag.String("data-dir", defaultDataDir, "Directory for the prompt store and log files")
	provider := flag.String("embedding-provider", embedDefaults.Provider,
		"Embedding provider: 'none', 'ollama' or 'openai' (OPENAI_API_KEY is read from the environment)")
	ollamaHost := flag.String("ollama-host", embedDefaults.OllamaHost, "Ollama server URL for embeddings")
	ollamaModel := flag.String("ollama-model", embedDefaults.OllamaModel, "Ollama embedding model to use")
	openaiModel := flag.String("openai-model", embedDefaults.OpenAIModel, "OpenAI embedding model to use")
	embedTimeout := flag.Duration("embedding-timeout", defaults.EmbeddingTimeout,
		"Per-call budget for the embedding strategy before falling back to TF-IDF")
	threshold := flag.Float64("threshold", defaults.Threshold,
		"Scores at or above this value are flagged as likely duplicates (0.0-1.0)")
	refine := flag.Bool("refine-edit-distance", defaults.RefineWithEditDistance,
		"Raise each score to its edit-distance similarity when that is higher")
	sortDesc := flag.Bool("sort-desc", defaults.SortDescending, "Return results sorted by score, highest first")
	window := flag.Int("corpus-window", domain.DefaultCorpusWindow,
		"Number of most recent stored prompts to compare submissions against")
	httpAddr := flag.String("http-addr", "", "Optional address for the HTTP API (e.g. ':8080'); disabled when empty")
	watchStore := flag.Bool("watch-store", false, "Reload the prompt store when another process rewrites it")

	flag.Parse()

	// --- 1. Setup file-based debug logger ---

	logger, logFile, err := setupLogger(*dataDir)
	if err != nil {
		log.Printf("Warning: failed to setup file logger: %v", err)
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	} else {
		defer logFile.Close()
	}

	logger.Info("server starting",
		"name", serverName,
		"version", serverVersion,
		"data_dir", *dataDir,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- 2. Engine config ---

	cfg := dedup.Config{
		EmbeddingEnabled:       *provider != embedding.ProviderNone,
		Threshold:              *threshold,
		RefineWithEditDistance: *refine,
		SortDescending:         *sortDesc,
		EmbeddingTimeout:       *embedTimeout,
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- 3. Embedder (optional) ---

	var scorerOpts []dedup.Option
	scorerOpts = append(scorerOpts, dedup.WithLogger(logger))

	var stats *embedding.Stats
	embedCfg := embedding.Config{
		Provider:    *provider,
		OllamaHost:  *ollamaHost,
		OllamaModel: *ollamaModel,
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		OpenAIModel: *openaiModel,
	}
	if cfg.EmbeddingEnabled {
		embedder, err := embedding.New(embedCfg)
		if err != nil {
			logger.Warn("failed to create embedder, using TF-IDF only",
				"provider", *provider,
				"error", err)
		} else {
			stats = embedding.NewStats()
			scorerOpts = append(scorerOpts, dedup.WithEmbedder(embedder, stats))
			logger.Info("embeddings enabled", "provider", *provider)
		}
	}

	scorer := dedup.New(cfg, scorerOpts...)

	// --- 4. Store + service ---

	promptStore, err := store.NewFileStore(*dataDir, store.WithLogger(logger))
	if err != nil {
		logger.Error("failed to open prompt store", "error", err)
		log.Fatalf("Failed to open prompt store: %v", err)
	}
	if *watchStore {
		if err := promptStore.Watch(ctx); err != nil {
			logger.Warn("store watcher disabled", "error", err)
		}
	}

	service := prompts.New(promptStore, scorer,
		prompts.WithWindow(*window),
		prompts.WithLogger(logger),
	)

	// --- 5. Optional HTTP API ---

	if *httpAddr != "" {
		srv := &http.Server{
			Addr:              *httpAddr,
			Handler:           httpapi.NewRouter(service, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("http api listening", "addr", *httpAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http api error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	// --- 6. MCP server ---

	handlers := mcphandlers.NewHandlers(service, stats, mcphandlers.StatusInfo{
		Provider:     *provider,
		Threshold:    cfg.Threshold,
		Refine:       cfg.RefineWithEditDistance,
		SortDesc:     cfg.SortDescending,
		CorpusWindow: service.Window(),
	}, logger)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &mcp.ServerOptions{
		Instructions: "Use prompt_check before writing a new prompt to see if a similar one exists, then prompt_submit to store it. similarity_score compares a prompt against an explicit list.",
	})
	handlers.Register(server)

	logger.Info("server ready, waiting for requests")

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Error("server error", "error", err)
		log.Fatal(err)
	}
}
