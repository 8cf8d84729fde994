//go:build cgo

package textgraph

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const extractionReply = `{
	"nodes": [
		{"id": "Marie Curie", "type": "Person"},
		{"id": "Pierre Curie", "type": "Person"}
	],
	"relationships": [
		{"source": "Marie Curie", "target": "Pierre Curie", "type": "MARRIED_TO"}
	]
}`

// fakeLLM answers every chat completion with the canned extraction reply
// and records the prompt content it received.
func fakeLLM(t *testing.T, lastPrompt *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if lastPrompt != nil {
			var body struct {
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if len(body.Messages) > 0 {
				*lastPrompt = body.Messages[len(body.Messages)-1].Content
			}
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"model": "test-model",
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": extractionReply}, "finish_reason": "stop"},
			},
			"usage": map[string]int{"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150},
		})
	}))
}

func newTestEngine(t *testing.T, baseURL string, charLimit int) Engine {
	t.Helper()
	eng, err := New(Config{
		DBPath:    filepath.Join(t.TempDir(), "test.db"),
		CharLimit: charLimit,
		Chat: LLMConfig{
			Provider: "custom",
			Model:    "test-model",
			BaseURL:  baseURL,
		},
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { eng.Close() })
	return eng
}

func TestGenerate(t *testing.T) {
	srv := fakeLLM(t, nil)
	defer srv.Close()
	eng := newTestEngine(t, srv.URL, 0)

	res, err := eng.Generate(context.Background(), "Marie Curie was married to Pierre Curie.")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if res.Stats.Nodes != 2 || res.Stats.Relationships != 1 {
		t.Errorf("stats = %+v, want 2 nodes / 1 relationship", res.Stats)
	}
	if res.Model != "test-model" {
		t.Errorf("model = %q, want test-model", res.Model)
	}
	if res.TotalTokens != 150 {
		t.Errorf("total tokens = %d, want 150", res.TotalTokens)
	}
	if res.Truncated {
		t.Error("short input reported truncated")
	}
	if res.ID == "" {
		t.Error("saved generation has no ID")
	}
}

func TestGenerateEmptyText(t *testing.T) {
	srv := fakeLLM(t, nil)
	defer srv.Close()
	eng := newTestEngine(t, srv.URL, 0)

	for _, text := range []string{"", "   ", "\n\t\n"} {
		if _, err := eng.Generate(context.Background(), text); !errors.Is(err, ErrEmptyText) {
			t.Errorf("Generate(%q) error = %v, want ErrEmptyText", text, err)
		}
	}
}

func TestGenerateTruncates(t *testing.T) {
	var prompt string
	srv := fakeLLM(t, &prompt)
	defer srv.Close()
	eng := newTestEngine(t, srv.URL, 50)

	long := strings.Repeat("word ", 100)
	res, err := eng.Generate(context.Background(), long)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !res.Truncated {
		t.Error("long input not reported truncated")
	}
	if res.TextLength != 50 {
		t.Errorf("text length = %d, want 50", res.TextLength)
	}
	if strings.Contains(prompt, long) {
		t.Error("full input sent despite character limit")
	}
}

func TestGenerateWithoutSave(t *testing.T) {
	srv := fakeLLM(t, nil)
	defer srv.Close()
	eng := newTestEngine(t, srv.URL, 0)

	res, err := eng.Generate(context.Background(), "Marie Curie.", WithoutSave())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.ID != "" {
		t.Errorf("unsaved generation has ID %q", res.ID)
	}

	saved, err := eng.ListGraphs(context.Background())
	if err != nil {
		t.Fatalf("ListGraphs() error = %v", err)
	}
	if len(saved) != 0 {
		t.Errorf("got %d saved graphs, want 0", len(saved))
	}
}

func TestGenerateTypeConstraintsInPrompt(t *testing.T) {
	var prompt string
	srv := fakeLLM(t, &prompt)
	defer srv.Close()
	eng := newTestEngine(t, srv.URL, 0)

	_, err := eng.Generate(context.Background(), "Marie Curie worked in Paris.",
		WithEntityTypes("Person", "Location"),
		WithRelationshipTypes("WORKS_IN"))
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !strings.Contains(prompt, "Person") || !strings.Contains(prompt, "WORKS_IN") {
		t.Error("prompt missing requested type constraints")
	}
}

func TestGenerateFromFile(t *testing.T) {
	srv := fakeLLM(t, nil)
	defer srv.Close()
	eng := newTestEngine(t, srv.URL, 0)

	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte("Marie Curie was married to Pierre Curie."), 0o644); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	res, err := eng.GenerateFromFile(context.Background(), path)
	if err != nil {
		t.Fatalf("GenerateFromFile() error = %v", err)
	}
	if res.Stats.Nodes != 2 {
		t.Errorf("nodes = %d, want 2", res.Stats.Nodes)
	}
}

func TestGenerateFromFileUnsupportedFormat(t *testing.T) {
	srv := fakeLLM(t, nil)
	defer srv.Close()
	eng := newTestEngine(t, srv.URL, 0)

	path := filepath.Join(t.TempDir(), "input.epub")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	if _, err := eng.GenerateFromFile(context.Background(), path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestGenerateFromFileParsingFailed(t *testing.T) {
	srv := fakeLLM(t, nil)
	defer srv.Close()
	eng := newTestEngine(t, srv.URL, 0)

	if _, err := eng.GenerateFromFile(context.Background(),
		filepath.Join(t.TempDir(), "missing.txt")); !errors.Is(err, ErrParsingFailed) {
		t.Errorf("error = %v, want ErrParsingFailed", err)
	}
}

func TestSavedGraphRoundtrip(t *testing.T) {
	srv := fakeLLM(t, nil)
	defer srv.Close()
	eng := newTestEngine(t, srv.URL, 0)
	ctx := context.Background()

	res, err := eng.Generate(ctx, "Marie Curie was married to Pierre Curie.")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	list, err := eng.ListGraphs(ctx)
	if err != nil {
		t.Fatalf("ListGraphs() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d saved graphs, want 1", len(list))
	}
	if list[0].Graph != nil {
		t.Error("listing should not include full graph payloads")
	}
	if list[0].Title != "Marie Curie was married to Pierre Curie." {
		t.Errorf("title = %q", list[0].Title)
	}

	got, err := eng.GetGraph(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetGraph() error = %v", err)
	}
	if got.Graph == nil || len(got.Graph.Nodes) != 2 || len(got.Graph.Relationships) != 1 {
		t.Errorf("saved graph = %+v, want full payload back", got.Graph)
	}

	if err := eng.DeleteGraph(ctx, res.ID); err != nil {
		t.Fatalf("DeleteGraph() error = %v", err)
	}
	if _, err := eng.GetGraph(ctx, res.ID); !errors.Is(err, ErrGraphNotFound) {
		t.Errorf("GetGraph() after delete error = %v, want ErrGraphNotFound", err)
	}
}

func TestGetGraphNotFound(t *testing.T) {
	srv := fakeLLM(t, nil)
	defer srv.Close()
	eng := newTestEngine(t, srv.URL, 0)

	if _, err := eng.GetGraph(context.Background(), "nope"); !errors.Is(err, ErrGraphNotFound) {
		t.Errorf("error = %v, want ErrGraphNotFound", err)
	}
	if err := eng.DeleteGraph(context.Background(), "nope"); !errors.Is(err, ErrGraphNotFound) {
		t.Errorf("delete error = %v, want ErrGraphNotFound", err)
	}
}

func TestNewInvalidProvider(t *testing.T) {
	_, err := New(Config{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Chat:   LLMConfig{Provider: "doesnotexist", Model: "m"},
	})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestGraphTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "first line", text: "Marie Curie\nwon two Nobel prizes.", want: "Marie Curie"},
		{name: "skips blank lines", text: "\n\n  \nActual content", want: "Actual content"},
		{name: "blank text", text: "   \n  ", want: "Untitled"},
		{
			name: "long line truncated",
			text: strings.Repeat("a", 100),
			want: strings.Repeat("a", 80) + "…",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := graphTitle(tt.text); got != tt.want {
				t.Errorf("graphTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}
