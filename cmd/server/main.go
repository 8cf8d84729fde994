package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/pbellmann/textgraph"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (JSON or YAML)")
	addr := flag.String("addr", ":8080", "Listen address")
	flag.Parse()

	// Structured JSON logging.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := textgraph.DefaultConfig()
	if *configPath != "" {
		if err := loadConfig(*configPath, &cfg); err != nil {
			slog.Error("loading config", "path", *configPath, "error", err)
			os.Exit(1)
		}
	}
	applyEnv(&cfg)

	apiKey := os.Getenv("TEXTGRAPH_API_KEY")
	corsOrigins := os.Getenv("TEXTGRAPH_CORS_ORIGINS")

	engine, err := textgraph.New(cfg)
	if err != nil {
		slog.Error("creating engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	h := newHandler(engine, cfg.CharLimit)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      newRouter(h, apiKey, corsOrigins),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // generation responses can be slow
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "addr", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}

// newRouter builds the route table and wraps it in the middleware chain:
// recovery -> cors -> auth -> logging -> mux.
func newRouter(h *handler, apiKey, corsOrigins string) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("POST /api/generate", h.handleGenerate)
	mux.HandleFunc("POST /api/upload", h.handleUpload)
	mux.HandleFunc("GET /api/graphs", h.handleListGraphs)
	mux.HandleFunc("GET /api/graphs/{id}", h.handleGetGraph)
	mux.HandleFunc("DELETE /api/graphs/{id}", h.handleDeleteGraph)
	mux.HandleFunc("GET /graphs/{id}/view", h.handleViewGraph)
	mux.HandleFunc("GET /graphs/{id}/nodes.csv", h.handleNodesCSV)
	mux.HandleFunc("GET /graphs/{id}/relationships.csv", h.handleRelationshipsCSV)
	mux.HandleFunc("GET /health", h.handleHealth)

	var handler http.Handler = mux
	handler = logMiddleware(handler)
	handler = authMiddleware(apiKey, handler)
	handler = corsMiddleware(corsOrigins, handler)
	handler = recoveryMiddleware(handler)
	return handler
}

// loadConfig reads a JSON or YAML config file by extension.
func loadConfig(path string, cfg *textgraph.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".json":
		return json.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
}

// applyEnv overrides config fields from environment variables.
func applyEnv(cfg *textgraph.Config) {
	if v := os.Getenv("TEXTGRAPH_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("TEXTGRAPH_CHAT_PROVIDER"); v != "" {
		cfg.Chat.Provider = v
	}
	if v := os.Getenv("TEXTGRAPH_CHAT_MODEL"); v != "" {
		cfg.Chat.Model = v
	}
	if v := os.Getenv("TEXTGRAPH_CHAT_BASE_URL"); v != "" {
		cfg.Chat.BaseURL = v
	}
	if v := os.Getenv("TEXTGRAPH_CHAT_API_KEY"); v != "" {
		cfg.Chat.APIKey = v
	}
	if v := os.Getenv("TEXTGRAPH_CHAR_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			cfg.CharLimit = limit
		} else {
			slog.Warn("ignoring invalid TEXTGRAPH_CHAR_LIMIT", "value", v)
		}
	}

	// Fallback: check well-known provider env vars for API keys.
	if cfg.Chat.APIKey == "" {
		switch cfg.Chat.Provider {
		case "gemini":
			cfg.Chat.APIKey = os.Getenv("GEMINI_API_KEY")
		case "openai":
			cfg.Chat.APIKey = os.Getenv("OPENAI_API_KEY")
		case "groq":
			cfg.Chat.APIKey = os.Getenv("GROQ_API_KEY")
		}
	}
}
