// Package store persists generated graphs in SQLite so the UI can list
// recent generations and serve re-renders and CSV downloads without
// calling the LLM again.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a graph ID does not exist.
var ErrNotFound = errors.New("store: graph not found")

// Graph is a row in the graphs table. Nodes and Relationships hold the
// JSON payloads as stored.
type Graph struct {
	ID                string `json:"id"`
	Title             string `json:"title"`
	TextLength        int    `json:"text_length"`
	TextHash          string `json:"text_hash"`
	Truncated         bool   `json:"truncated"`
	Model             string `json:"model,omitempty"`
	Nodes             string `json:"nodes,omitempty"`
	Relationships     string `json:"relationships,omitempty"`
	NodeCount         int    `json:"node_count"`
	RelationshipCount int    `json:"relationship_count"`
	PromptTokens      int    `json:"prompt_tokens"`
	CompletionTokens  int    `json:"completion_tokens"`
	TotalTokens       int    `json:"total_tokens"`
	CreatedAt         string `json:"created_at"`
}

// Store wraps the SQLite database for all textgraph persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema.
func New(dbPath string) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert saves a graph row. The caller supplies the ID.
func (s *Store) Insert(ctx context.Context, g Graph) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO graphs (
			id, title, text_length, text_hash, truncated, model,
			nodes, relationships, node_count, relationship_count,
			prompt_tokens, completion_tokens, total_tokens
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Title, g.TextLength, g.TextHash, g.Truncated, g.Model,
		g.Nodes, g.Relationships, g.NodeCount, g.RelationshipCount,
		g.PromptTokens, g.CompletionTokens, g.TotalTokens,
	)
	if err != nil {
		return fmt.Errorf("inserting graph: %w", err)
	}
	return nil
}

// Get returns a graph with its full node/relationship payloads.
func (s *Store) Get(ctx context.Context, id string) (*Graph, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, text_length, text_hash, truncated, model,
		       nodes, relationships, node_count, relationship_count,
		       prompt_tokens, completion_tokens, total_tokens, created_at
		FROM graphs WHERE id = ?`, id)

	var g Graph
	err := row.Scan(&g.ID, &g.Title, &g.TextLength, &g.TextHash, &g.Truncated,
		&g.Model, &g.Nodes, &g.Relationships, &g.NodeCount, &g.RelationshipCount,
		&g.PromptTokens, &g.CompletionTokens, &g.TotalTokens, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting graph: %w", err)
	}
	return &g, nil
}

// List returns graph summaries, newest first, without the JSON payloads.
func (s *Store) List(ctx context.Context) ([]Graph, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, text_length, truncated, model,
		       node_count, relationship_count, total_tokens, created_at
		FROM graphs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("listing graphs: %w", err)
	}
	defer rows.Close()

	var graphs []Graph
	for rows.Next() {
		var g Graph
		if err := rows.Scan(&g.ID, &g.Title, &g.TextLength, &g.Truncated,
			&g.Model, &g.NodeCount, &g.RelationshipCount, &g.TotalTokens,
			&g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning graph row: %w", err)
		}
		graphs = append(graphs, g)
	}
	return graphs, rows.Err()
}

// Delete removes a graph.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM graphs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting graph: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
