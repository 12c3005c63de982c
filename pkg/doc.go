// Package pkg provides the core libraries for indexgraph.
//
// # Overview
//
// indexgraph turns a package registry's on-disk index into a graph of exact
// package versions, where every declared dependency points at the newest
// version that satisfies it. The pkg directory is organized by stage:
//
//  1. [registry] - Version records, requirements, and the index walker and parser
//  2. [index] - The in-memory Package Index and its concurrent builder
//  3. [dag] - Arena graph that rejects edges closing a cycle
//  4. [depgraph] - Dependency resolution and graph construction
//  5. [query], [render], [server] - Reading a built graph
//  6. [cache], [source] - Locating an index and caching its parsed form
//
// # Architecture
//
//	registry index on disk
//	         ↓
//	    [source] (locate the index root)
//	         ↓
//	    [index] (walk, parse, integrity checks)  ⇄  [cache]
//	         ↓
//	    [depgraph] (resolve, insert edges into [dag])
//	         ↓
//	    [query] / [render] / [server]
//
// # Quick Start
//
//	idx, _, err := index.Build(ctx, root, index.Options{})
//	if err != nil {
//	    return err
//	}
//	g, report, err := depgraph.Build(idx, depgraph.Options{})
//	if err != nil {
//	    return err
//	}
//	dependents, err := query.Dependents(g, "libc")
//
// Errors carry a category from [errors] so callers can tell integrity,
// parse, cycle and I/O failures apart.
package pkg
