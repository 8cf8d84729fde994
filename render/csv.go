package render

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pbellmann/textgraph/graph"
)

// WriteNodesCSV writes the node table: one row per extracted node with its
// ID, type label, and properties as a JSON object. Unlike the HTML view
// this includes every node, connected or not.
func WriteNodesCSV(w io.Writer, g *graph.Graph) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Node ID", "Type", "Properties"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, n := range g.Nodes {
		if err := cw.Write([]string{n.ID, n.Type, formatProperties(n.Properties)}); err != nil {
			return fmt.Errorf("writing node %q: %w", n.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteRelationshipsCSV writes the relationship table: source, relationship
// type as extracted, target, and properties as a JSON object. Lowercasing
// is an edge-label affordance of the HTML view only.
func WriteRelationshipsCSV(w io.Writer, g *graph.Graph) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Source", "Relationship", "Target", "Properties"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range g.Relationships {
		row := []string{r.Source, r.Type, r.Target, formatProperties(r.Properties)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing relationship %q->%q: %w", r.Source, r.Target, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatProperties(props map[string]string) string {
	if len(props) == 0 {
		return ""
	}
	data, err := json.Marshal(props)
	if err != nil {
		return ""
	}
	return string(data)
}
