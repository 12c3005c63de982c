// Package render draws the neighbourhood of one version in a dependency
// graph as a node-link diagram.
//
// [ToDOT] produces Graphviz DOT source for the versions reachable from a
// starting version within a bounded number of hops, following either
// dependencies or dependents. [RenderSVG] lays the DOT out in-process:
//
//	dot, err := render.ToDOT(g, id, render.Options{Depth: 2})
//	svg, err := render.RenderSVG(dot)
//
// [WriteJSON] encodes the same neighbourhood as node-link JSON for tools
// that draw graphs themselves.
//
// The generated DOT uses top-to-bottom layout (rankdir=TB) with rounded
// boxes; the starting version is filled, build dependencies are drawn with
// dashed edges and optional ones with dotted edges.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering, so no Graphviz installation is required.
package render
