package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/indexgraph/pkg/depgraph"
	"github.com/matzehuels/indexgraph/pkg/registry"
)

type jsonGraph struct {
	Root  string     `json:"root"`
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

type jsonNode struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Version string `json:"version"`
	Yanked  bool   `json:"yanked,omitempty"`
}

type jsonEdge struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Req      string `json:"req"`
	Kind     string `json:"kind"`
	Optional bool   `json:"optional,omitempty"`
	Alias    string `json:"alias,omitempty"`
}

// WriteJSON encodes the same neighbourhood as [ToDOT] as node-link JSON
// and writes it to w. Node IDs are "name@version".
//
//	{
//	  "root": "app@1.0.0",
//	  "nodes": [{"id": "app@1.0.0", "name": "app", "version": "1.0.0"}, ...],
//	  "edges": [{"from": "app@1.0.0", "to": "serde@1.0.200", "req": "^1", "kind": "normal"}, ...]
//	}
func WriteJSON(w io.Writer, g *depgraph.Graph, id registry.ID, opts Options) error {
	nodes, edges, err := neighbourhood(g, id, opts)
	if err != nil {
		return err
	}

	out := jsonGraph{
		Root:  id.String(),
		Nodes: make([]jsonNode, len(nodes)),
		Edges: make([]jsonEdge, len(edges)),
	}
	for i, n := range nodes {
		r := g.Record(n)
		out.Nodes[i] = jsonNode{ID: r.String(), Name: r.Name, Version: r.Version.Original(), Yanked: r.Yanked}
	}
	for i, e := range edges {
		from, to := g.Record(e.From), g.Record(e.To)
		dep := from.Deps[e.Ref]
		je := jsonEdge{
			From:     from.String(),
			To:       to.String(),
			Req:      dep.Req.String(),
			Kind:     string(dep.Kind),
			Optional: dep.Optional,
		}
		if dep.Package != "" {
			je.Alias = dep.Name
		}
		out.Edges[i] = je
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}
