// Package graph defines the knowledge graph data model produced by LLM
// extraction: typed nodes connected by typed, directed relationships.
package graph

import "strings"

// Node is a single extracted entity. The ID doubles as the display label;
// Type is the category label the model assigned (Person, Organization, ...).
type Node struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Relationship is a directed, typed edge between two nodes, referencing
// them by ID.
type Relationship struct {
	Source     string            `json:"source"`
	Target     string            `json:"target"`
	Type       string            `json:"type"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Graph is an unordered collection of nodes and relationships.
type Graph struct {
	Nodes         []Node         `json:"nodes"`
	Relationships []Relationship `json:"relationships"`
}

// Stats summarises a graph for display.
type Stats struct {
	Nodes         int `json:"nodes"`
	Relationships int `json:"relationships"`
}

// Stats returns node and relationship counts.
func (g *Graph) Stats() Stats {
	return Stats{Nodes: len(g.Nodes), Relationships: len(g.Relationships)}
}

// Node returns the node with the given ID, matched case-insensitively.
func (g *Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if strings.EqualFold(n.ID, id) {
			return n, true
		}
	}
	return Node{}, false
}

// Pruned returns a copy of the graph suitable for rendering: relationships
// whose endpoints are not both present are dropped, and only nodes that
// participate in at least one surviving relationship are kept. Input order
// is preserved. Export and listing paths use the full graph; pruning is a
// render-time concern only.
func (g *Graph) Pruned() *Graph {
	byID := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		byID[strings.ToLower(n.ID)] = true
	}

	connected := make(map[string]bool)
	var rels []Relationship
	for _, r := range g.Relationships {
		src := strings.ToLower(r.Source)
		tgt := strings.ToLower(r.Target)
		if !byID[src] || !byID[tgt] {
			continue
		}
		rels = append(rels, r)
		connected[src] = true
		connected[tgt] = true
	}

	var nodes []Node
	for _, n := range g.Nodes {
		if connected[strings.ToLower(n.ID)] {
			nodes = append(nodes, n)
		}
	}

	return &Graph{Nodes: nodes, Relationships: rels}
}
