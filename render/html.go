// Package render turns an extracted graph into its two output forms: an
// interactive HTML page (vis-network does the physics layout in the
// browser) and CSV files for the node and relationship tables.
package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/pbellmann/textgraph/graph"
)

// visNode and visEdge match the vis-network dataset format. Node label is
// the entity ID; the type label drives both the hover tooltip and the
// color group. Edge labels are the lowercased relationship type.
type visNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
	Group string `json:"group"`
}

type visEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Label  string `json:"label"`
	Arrows string `json:"arrows"`
}

// physicsOptions are the forceAtlas2Based settings the layout uses.
const physicsOptions = `{
  "physics": {
    "forceAtlas2Based": {
      "gravitationalConstant": -100,
      "centralGravity": 0.01,
      "springLength": 200,
      "springConstant": 0.08
    },
    "minVelocity": 0.75,
    "solver": "forceAtlas2Based"
  }
}`

var pageTemplate = template.Must(template.New("graph").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://unpkg.com/vis-network/standalone/umd/vis-network.min.js"></script>
<style>
  html, body { margin: 0; padding: 0; background-color: #222222; }
  #graph { width: 100%; height: 1200px; background-color: #222222; }
</style>
</head>
<body>
<div id="graph"></div>
<script>
  var nodes = new vis.DataSet({{.Nodes}});
  var edges = new vis.DataSet({{.Edges}});
  var options = {{.Options}};
  options.nodes = { font: { color: "white" } };
  options.edges = { font: { color: "white", strokeWidth: 0 } };
  new vis.Network(document.getElementById("graph"), { nodes: nodes, edges: edges }, options);
</script>
</body>
</html>
`))

type pageData struct {
	Title   string
	Nodes   template.JS
	Edges   template.JS
	Options template.JS
}

// HTML writes a standalone page rendering the graph. The graph is pruned
// first: dangling relationships are dropped and only nodes participating
// in at least one relationship are drawn, matching the extraction UI.
func HTML(w io.Writer, g *graph.Graph, title string) error {
	pruned := g.Pruned()

	nodes := make([]visNode, 0, len(pruned.Nodes))
	for _, n := range pruned.Nodes {
		nodes = append(nodes, visNode{
			ID:    n.ID,
			Label: n.ID,
			Title: n.Type,
			Group: n.Type,
		})
	}

	edges := make([]visEdge, 0, len(pruned.Relationships))
	for _, r := range pruned.Relationships {
		edges = append(edges, visEdge{
			From:   r.Source,
			To:     r.Target,
			Label:  strings.ToLower(r.Type),
			Arrows: "to",
		})
	}

	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("encoding nodes: %w", err)
	}
	edgesJSON, err := json.Marshal(edges)
	if err != nil {
		return fmt.Errorf("encoding edges: %w", err)
	}

	if title == "" {
		title = "Knowledge Graph"
	}

	return pageTemplate.Execute(w, pageData{
		Title:   title,
		Nodes:   template.JS(nodesJSON),
		Edges:   template.JS(edgesJSON),
		Options: template.JS(physicsOptions),
	})
}
