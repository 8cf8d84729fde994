package textgraph

import (
	"os"
	"path/filepath"
)

// DefaultCharLimit bounds how much input text is sent to the LLM in a
// single generation. Longer inputs are truncated, not rejected.
const DefaultCharLimit = 25000

// Config holds all configuration for the textgraph engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.textgraph/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "textgraph".
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set. Options: "home" (default) uses ~/.textgraph/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// Chat configures the LLM provider used for graph extraction.
	Chat LLMConfig `json:"chat" yaml:"chat"`

	// CharLimit is the maximum number of characters of input text sent
	// to the extraction call. Input beyond the limit is truncated.
	CharLimit int `json:"char_limit" yaml:"char_limit"`

	// EntityTypes, when set, constrains which node type labels the
	// extraction call may emit (e.g. Person, Organization, Location).
	// Per-request options override it.
	EntityTypes []string `json:"entity_types" yaml:"entity_types"`

	// RelationshipTypes, when set, constrains which relationship type
	// labels the extraction call may emit (e.g. WORKS_FOR, LOCATED_IN).
	RelationshipTypes []string `json:"relationship_types" yaml:"relationship_types"`
}

// LLMConfig configures a single LLM provider endpoint.
type LLMConfig struct {
	Provider string `json:"provider" yaml:"provider"` // gemini, openai, openrouter, groq, ollama, lmstudio, xai, custom
	Model    string `json:"model" yaml:"model"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	APIKey   string `json:"api_key" yaml:"api_key"`
}

// DefaultConfig returns a Config with Gemini flash for extraction and a
// 25k character input cap. The database is stored in
// ~/.textgraph/textgraph.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:     "textgraph",
		StorageDir: "home",
		Chat: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
		},
		CharLimit: DefaultCharLimit,
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "textgraph"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		return filepath.Join(home, ".textgraph", name+".db")
	}
}
