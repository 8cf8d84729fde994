// Package textgraph converts free-form text into a typed knowledge graph
// by delegating entity/relationship extraction to a hosted LLM API. The
// pipeline is linear and single-request: text in, one extraction call,
// graph out, optionally saved for later rendering and CSV export.
package textgraph

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pbellmann/textgraph/graph"
	"github.com/pbellmann/textgraph/llm"
	"github.com/pbellmann/textgraph/parser"
	"github.com/pbellmann/textgraph/store"
)

// Engine is the main entry point.
type Engine interface {
	// Generate extracts a knowledge graph from text. Text beyond the
	// configured character limit is truncated, not rejected.
	Generate(ctx context.Context, text string, opts ...GenerateOption) (*Result, error)

	// GenerateFromFile extracts the text from a document file, then
	// generates as with Generate.
	GenerateFromFile(ctx context.Context, path string, opts ...GenerateOption) (*Result, error)

	// ListGraphs returns summaries of saved generations, newest first.
	ListGraphs(ctx context.Context) ([]SavedGraph, error)

	// GetGraph returns a saved generation with its full graph.
	GetGraph(ctx context.Context, id string) (*SavedGraph, error)

	// DeleteGraph removes a saved generation.
	DeleteGraph(ctx context.Context, id string) error

	// Close cleanly shuts down the engine.
	Close() error
}

// Result is the outcome of one generation.
type Result struct {
	ID               string       `json:"id,omitempty"`
	Graph            *graph.Graph `json:"graph"`
	Stats            graph.Stats  `json:"stats"`
	Model            string       `json:"model,omitempty"`
	PromptTokens     int          `json:"prompt_tokens"`
	CompletionTokens int          `json:"completion_tokens"`
	TotalTokens      int          `json:"total_tokens"`
	TextLength       int          `json:"text_length"`
	Truncated        bool         `json:"truncated"`
}

// SavedGraph is a persisted generation. Graph is nil in listings.
type SavedGraph struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Graph             *graph.Graph `json:"graph,omitempty"`
	NodeCount         int          `json:"node_count"`
	RelationshipCount int          `json:"relationship_count"`
	Model             string       `json:"model,omitempty"`
	TextLength        int          `json:"text_length"`
	Truncated         bool         `json:"truncated"`
	TotalTokens       int          `json:"total_tokens"`
	CreatedAt         string       `json:"created_at"`
}

// GenerateOption configures a single generation.
type GenerateOption func(*generateOptions)

type generateOptions struct {
	entityTypes       []string
	relationshipTypes []string
	skipStart         int
	skipEnd           int
	noSave            bool
}

// WithEntityTypes constrains which node type labels the extraction may
// emit for this generation, overriding the configured default.
func WithEntityTypes(types ...string) GenerateOption {
	return func(o *generateOptions) { o.entityTypes = types }
}

// WithRelationshipTypes constrains which relationship type labels the
// extraction may emit for this generation.
func WithRelationshipTypes(types ...string) GenerateOption {
	return func(o *generateOptions) { o.relationshipTypes = types }
}

// WithSkipUnits skips leading/trailing document units (pages, paragraphs,
// slides, rows, lines depending on format) when generating from a file.
func WithSkipUnits(start, end int) GenerateOption {
	return func(o *generateOptions) { o.skipStart, o.skipEnd = start, end }
}

// WithoutSave generates without persisting the result.
func WithoutSave() GenerateOption {
	return func(o *generateOptions) { o.noSave = true }
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg       Config
	store     *store.Store
	chat      llm.Provider
	parsers   *parser.Registry
	extractor *graph.Extractor
}

// New creates a textgraph engine from configuration.
func New(cfg Config) (Engine, error) {
	if cfg.CharLimit <= 0 {
		cfg.CharLimit = DefaultCharLimit
	}

	s, err := store.New(cfg.resolveDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	chat, err := llm.NewProvider(llm.Config{
		Provider: cfg.Chat.Provider,
		Model:    cfg.Chat.Model,
		BaseURL:  cfg.Chat.BaseURL,
		APIKey:   cfg.Chat.APIKey,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &engine{
		cfg:       cfg,
		store:     s,
		chat:      chat,
		parsers:   parser.NewRegistry(),
		extractor: graph.NewExtractor(chat),
	}, nil
}

func (e *engine) Generate(ctx context.Context, text string, opts ...GenerateOption) (*Result, error) {
	options := &generateOptions{
		entityTypes:       e.cfg.EntityTypes,
		relationshipTypes: e.cfg.RelationshipTypes,
	}
	for _, o := range opts {
		o(options)
	}

	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	originalLength := utf8.RuneCountInString(text)
	truncated := originalLength > e.cfg.CharLimit
	if truncated {
		runes := []rune(text)
		text = string(runes[:e.cfg.CharLimit])
		slog.Warn("generate: input truncated",
			"original_chars", originalLength, "limit", e.cfg.CharLimit)
	}
	textLength := utf8.RuneCountInString(text)

	slog.Info("generate: extracting graph",
		"chars", textLength,
		"entity_types", len(options.entityTypes),
		"relationship_types", len(options.relationshipTypes))
	start := time.Now()

	ext, err := e.extractor.Extract(ctx, text, graph.Options{
		EntityTypes:       options.entityTypes,
		RelationshipTypes: options.relationshipTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	stats := ext.Graph.Stats()
	slog.Info("generate: extraction complete",
		"nodes", stats.Nodes, "relationships", stats.Relationships,
		"tokens", ext.TotalTokens,
		"elapsed", time.Since(start).Round(time.Millisecond))

	result := &Result{
		Graph:            ext.Graph,
		Stats:            stats,
		Model:            ext.Model,
		PromptTokens:     ext.PromptTokens,
		CompletionTokens: ext.CompletionTokens,
		TotalTokens:      ext.TotalTokens,
		TextLength:       textLength,
		Truncated:        truncated,
	}

	if options.noSave {
		return result, nil
	}

	result.ID = uuid.NewString()
	if err := e.save(ctx, result, text); err != nil {
		// The graph itself is fine; surface persistence trouble in logs
		// and hand the caller an unsaved result.
		slog.Warn("generate: saving graph failed", "error", err)
		result.ID = ""
	}
	return result, nil
}

func (e *engine) GenerateFromFile(ctx context.Context, path string, opts ...GenerateOption) (*Result, error) {
	options := &generateOptions{}
	for _, o := range opts {
		o(options)
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	p, err := e.parsers.Get(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	slog.Info("generate: parsing document", "file", filepath.Base(path), "format", format)
	text, err := p.Parse(ctx, path, parser.Options{
		SkipStart: options.skipStart,
		SkipEnd:   options.skipEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	return e.Generate(ctx, text, opts...)
}

func (e *engine) ListGraphs(ctx context.Context) ([]SavedGraph, error) {
	rows, err := e.store.List(ctx)
	if err != nil {
		return nil, err
	}

	graphs := make([]SavedGraph, 0, len(rows))
	for _, row := range rows {
		graphs = append(graphs, savedFromRow(row, false))
	}
	return graphs, nil
}

func (e *engine) GetGraph(ctx context.Context, id string) (*SavedGraph, error) {
	row, err := e.store.Get(ctx, id)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrGraphNotFound
		}
		return nil, err
	}

	saved := savedFromRow(*row, true)
	return &saved, nil
}

func (e *engine) DeleteGraph(ctx context.Context, id string) error {
	if err := e.store.Delete(ctx, id); err != nil {
		if err == store.ErrNotFound {
			return ErrGraphNotFound
		}
		return err
	}
	return nil
}

func (e *engine) Close() error {
	return e.store.Close()
}

// save persists one generation.
func (e *engine) save(ctx context.Context, r *Result, text string) error {
	nodes, err := json.Marshal(r.Graph.Nodes)
	if err != nil {
		return fmt.Errorf("encoding nodes: %w", err)
	}
	rels, err := json.Marshal(r.Graph.Relationships)
	if err != nil {
		return fmt.Errorf("encoding relationships: %w", err)
	}

	sum := sha256.Sum256([]byte(text))

	return e.store.Insert(ctx, store.Graph{
		ID:                r.ID,
		Title:             graphTitle(text),
		TextLength:        r.TextLength,
		TextHash:          hex.EncodeToString(sum[:]),
		Truncated:         r.Truncated,
		Model:             r.Model,
		Nodes:             string(nodes),
		Relationships:     string(rels),
		NodeCount:         r.Stats.Nodes,
		RelationshipCount: r.Stats.Relationships,
		PromptTokens:      r.PromptTokens,
		CompletionTokens:  r.CompletionTokens,
		TotalTokens:       r.TotalTokens,
	})
}

// graphTitle derives a display title from the first non-empty input line.
const maxTitleLength = 80

func graphTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > maxTitleLength {
			return string(runes[:maxTitleLength]) + "…"
		}
		return line
	}
	return "Untitled"
}

// savedFromRow converts a store row, optionally decoding the payloads.
func savedFromRow(row store.Graph, withGraph bool) SavedGraph {
	saved := SavedGraph{
		ID:                row.ID,
		Title:             row.Title,
		NodeCount:         row.NodeCount,
		RelationshipCount: row.RelationshipCount,
		Model:             row.Model,
		TextLength:        row.TextLength,
		Truncated:         row.Truncated,
		TotalTokens:       row.TotalTokens,
		CreatedAt:         row.CreatedAt,
	}

	if withGraph {
		g := &graph.Graph{}
		// Payloads were marshalled by save; decoding failures mean a
		// corrupt row, which we surface as an empty graph rather than
		// failing the read.
		if err := json.Unmarshal([]byte(row.Nodes), &g.Nodes); err != nil {
			slog.Warn("store: undecodable nodes payload", "graph_id", row.ID, "error", err)
		}
		if err := json.Unmarshal([]byte(row.Relationships), &g.Relationships); err != nil {
			slog.Warn("store: undecodable relationships payload", "graph_id", row.ID, "error", err)
		}
		saved.Graph = g
	}

	return saved
}
