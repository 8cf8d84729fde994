package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pbellmann/textgraph/llm"
)

// extractionPrompt asks the model to emit the whole graph in one shot:
// nodes first, then relationships between them. The two %s slots take the
// optional type-constraint sections and the input text.
const extractionPrompt = `You are a knowledge graph extraction engine.
Given the following text, extract a knowledge graph: the entities mentioned
(nodes) and the directed relationships between them.

Return a JSON object with exactly two keys:
  "nodes"         : array of {"id": string, "type": string, "properties": object of string values (optional)}
  "relationships" : array of {"source": string, "target": string, "type": string, "properties": object of string values (optional)}

Rules:
- Node ids are the entity names as they appear in the text (e.g. "Marie Curie").
- Node types are capitalised category labels (e.g. Person, Organization, Location, Event, Concept).
- Relationship types are upper-snake-case verbs (e.g. WORKS_FOR, LOCATED_IN, MARRIED_TO).
- Relationship source and target must be node ids from the "nodes" array.
- Only include nodes and relationships clearly supported by the text.
- If there are none, return empty arrays.
- Do NOT include any text outside the JSON object.

EXAMPLE:

Input: "Marie Curie worked at the University of Paris. She was married to Pierre Curie."
Output:
{"nodes": [{"id": "Marie Curie", "type": "Person"}, {"id": "University of Paris", "type": "Organization"}, {"id": "Pierre Curie", "type": "Person"}], "relationships": [{"source": "Marie Curie", "target": "University of Paris", "type": "WORKS_FOR"}, {"source": "Marie Curie", "target": "Pierre Curie", "type": "MARRIED_TO"}]}

%s
TEXT:
%s`

// defaultNodeType is assigned when the model omits a node's type label.
const defaultNodeType = "Concept"

// Options constrains what the extraction call may emit. Empty slices leave
// the model free to choose its own labels.
type Options struct {
	EntityTypes       []string
	RelationshipTypes []string
}

// Extraction is the outcome of a single extraction call.
type Extraction struct {
	Graph            *Graph
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Extractor turns free-form text into a Graph with one LLM call.
type Extractor struct {
	chat llm.Provider
}

// NewExtractor creates an extractor backed by the given chat provider.
func NewExtractor(chat llm.Provider) *Extractor {
	return &Extractor{chat: chat}
}

// Extract runs the extraction prompt over text and returns the normalised
// graph. Relationships whose endpoints the model did not also emit as nodes
// are dropped here rather than trusted downstream.
func (e *Extractor) Extract(ctx context.Context, text string, opts Options) (*Extraction, error) {
	prompt := fmt.Sprintf(extractionPrompt, constraintSection(opts), text)

	resp, err := e.chat.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: "user", Content: prompt},
		},
		Temperature:    0.0,
		ResponseFormat: "json_object",
	})
	if err != nil {
		return nil, fmt.Errorf("extraction llm chat: %w", err)
	}

	g, err := parseExtraction(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("parsing extraction result: %w", err)
	}

	return &Extraction{
		Graph:            g,
		Model:            resp.Model,
		PromptTokens:     resp.PromptTokens,
		CompletionTokens: resp.CompletionTokens,
		TotalTokens:      resp.TotalTokens,
	}, nil
}

// constraintSection renders the optional allowed-type lists for the prompt.
func constraintSection(opts Options) string {
	var b strings.Builder
	if len(opts.EntityTypes) > 0 {
		b.WriteString("ALLOWED NODE TYPES (use only these values for \"type\" on nodes):\n")
		b.WriteString(strings.Join(opts.EntityTypes, ", "))
		b.WriteString("\n")
	}
	if len(opts.RelationshipTypes) > 0 {
		b.WriteString("ALLOWED RELATIONSHIP TYPES (use only these values for \"type\" on relationships):\n")
		b.WriteString(strings.Join(opts.RelationshipTypes, ", "))
		b.WriteString("\n")
	}
	return b.String()
}

// codeBlockRe strips markdown code fences from LLM output.
var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// extractJSON attempts to find a valid JSON object in the LLM response text.
// It handles common LLM quirks: markdown code blocks, text before/after JSON.
func extractJSON(raw string) (string, error) {
	if m := codeBlockRe.FindStringSubmatch(raw); len(m) > 1 {
		raw = m[1]
	}

	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") {
		return raw, nil
	}

	// Find the first '{' and last '}' to extract the JSON object.
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1], nil
	}

	return "", fmt.Errorf("no JSON object found in response")
}

// rawGraph is the JSON shape the extraction call returns.
type rawGraph struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// parseExtraction decodes and normalises a raw extraction response:
// node ids are trimmed, empty ids dropped, duplicate ids merged
// (case-insensitive, first occurrence wins, missing properties filled in),
// and relationships with unknown endpoints or empty types discarded.
func parseExtraction(raw string) (*Graph, error) {
	jsonStr, err := extractJSON(raw)
	if err != nil {
		return nil, err
	}

	var rg rawGraph
	if err := json.Unmarshal([]byte(jsonStr), &rg); err != nil {
		return nil, fmt.Errorf("unmarshalling extraction result: %w", err)
	}

	g := &Graph{}
	index := make(map[string]int) // lowercased id -> index into g.Nodes

	for _, n := range rg.Nodes {
		n.ID = strings.TrimSpace(n.ID)
		if n.ID == "" {
			continue
		}
		n.Type = strings.TrimSpace(n.Type)
		if n.Type == "" {
			n.Type = defaultNodeType
		}

		key := strings.ToLower(n.ID)
		if i, ok := index[key]; ok {
			// Duplicate: keep the first node, adopt any new properties.
			for k, v := range n.Properties {
				if g.Nodes[i].Properties == nil {
					g.Nodes[i].Properties = make(map[string]string)
				}
				if _, exists := g.Nodes[i].Properties[k]; !exists {
					g.Nodes[i].Properties[k] = v
				}
			}
			continue
		}
		index[key] = len(g.Nodes)
		g.Nodes = append(g.Nodes, n)
	}

	for _, r := range rg.Relationships {
		r.Source = strings.TrimSpace(r.Source)
		r.Target = strings.TrimSpace(r.Target)
		r.Type = strings.TrimSpace(r.Type)
		if r.Source == "" || r.Target == "" || r.Type == "" {
			continue
		}

		si, ok := index[strings.ToLower(r.Source)]
		if !ok {
			continue
		}
		ti, ok := index[strings.ToLower(r.Target)]
		if !ok {
			continue
		}

		// Canonicalise endpoint spelling to the stored node ids.
		r.Source = g.Nodes[si].ID
		r.Target = g.Nodes[ti].ID
		g.Relationships = append(g.Relationships, r)
	}

	return g, nil
}
