package store

// schemaSQL is the DDL for the saved-graphs table. Node and relationship
// payloads are stored as JSON so a saved graph can be re-rendered and
// exported without re-running extraction.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS graphs (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    text_length INTEGER NOT NULL,
    text_hash TEXT NOT NULL,
    truncated INTEGER NOT NULL DEFAULT 0,
    model TEXT,
    nodes JSON NOT NULL,
    relationships JSON NOT NULL,
    node_count INTEGER NOT NULL,
    relationship_count INTEGER NOT NULL,
    prompt_tokens INTEGER DEFAULT 0,
    completion_tokens INTEGER DEFAULT 0,
    total_tokens INTEGER DEFAULT 0,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_graphs_created ON graphs(created_at DESC);
`
