package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/indexgraph/pkg/dag"
	"github.com/matzehuels/indexgraph/pkg/depgraph"
	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/registry"
)

// Options configures diagram generation.
type Options struct {
	// Depth bounds how many hops from the starting version are drawn
	// (default 1). A negative depth draws everything reachable.
	Depth int
	// Reverse follows dependents instead of dependencies.
	Reverse bool
	// Detailed labels edges with the declared requirement.
	Detailed bool
}

// ToDOT converts the neighbourhood of id to Graphviz DOT format. Nodes and
// edges appear in breadth-first order, so the output is deterministic.
func ToDOT(g *depgraph.Graph, id registry.ID, opts Options) (string, error) {
	nodes, edges, err := neighbourhood(g, id, opts)
	if err != nil {
		return "", err
	}
	start := nodes[0]

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range nodes {
		r := g.Record(n)
		attrs := []string{fmt.Sprintf("label=%q", r.Name+"\n"+r.Version.Original())}
		if n == start {
			attrs = append(attrs, "fillcolor=\"#dbeafe\"", "penwidth=2")
		}
		if r.Yanked {
			attrs = append(attrs, "fontcolor=grey50")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", r.String(), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range edges {
		from, to := g.Record(e.From), g.Record(e.To)
		dep := from.Deps[e.Ref]
		var attrs []string
		if opts.Detailed {
			attrs = append(attrs, fmt.Sprintf("label=%q", dep.Req.String()))
		}
		switch {
		case dep.Kind == registry.KindBuild:
			attrs = append(attrs, "style=dashed")
		case dep.Optional:
			attrs = append(attrs, "style=dotted")
		}
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  %q -> %q;\n", from.String(), to.String())
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", from.String(), to.String(), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// neighbourhood collects the nodes within opts.Depth hops of id in
// breadth-first order, starting with id itself, and the edges traversed.
func neighbourhood(g *depgraph.Graph, id registry.ID, opts Options) ([]dag.NodeID, []dag.Edge, error) {
	start, ok := g.Node(id)
	if !ok {
		return nil, nil, errs.New(errs.ErrCodeVersionNotFound, "version %s not in graph", id)
	}
	depth := opts.Depth
	if depth == 0 {
		depth = 1
	}

	d := g.DAG()
	dist := map[dag.NodeID]int{start: 0}
	nodes := []dag.NodeID{start}
	var edges []dag.Edge
	for i := 0; i < len(nodes); i++ {
		n := nodes[i]
		if depth >= 0 && dist[n] >= depth {
			continue
		}
		adj := d.OutEdges(n)
		if opts.Reverse {
			adj = d.InEdges(n)
		}
		for _, e := range adj {
			edges = append(edges, e)
			next := e.To
			if opts.Reverse {
				next = e.From
			}
			if _, seen := dist[next]; !seen {
				dist[next] = dist[n] + 1
				nodes = append(nodes, next)
			}
		}
	}
	return nodes, edges, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one
// sized in pixels and anchored at the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
