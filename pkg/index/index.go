package index

import (
	"fmt"
	"iter"
	"maps"
	"slices"

	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/registry"
)

// IntegrityKind names the kind of contradiction found in an index.
type IntegrityKind string

const (
	// DuplicateVersion: the same (name, version) identity was declared twice.
	DuplicateVersion IntegrityKind = "duplicate version"
	// DuplicatePackage: two files declare the same package name.
	DuplicatePackage IntegrityKind = "duplicate package"
	// MixedNames: one file contains records for more than one package.
	MixedNames IntegrityKind = "mixed package names"
)

// IntegrityError reports that the index contradicts itself. It is always
// fatal: the index is corrupt and nothing built on it can be trusted.
type IntegrityError struct {
	Kind   IntegrityKind
	ID     registry.ID // Offending identity; Version is empty for package-level errors
	First  string      // Where the identity was first seen
	Second string      // Where it was seen again
}

// Error implements the error interface.
func (e *IntegrityError) Error() string {
	subject := e.ID.Name
	if e.ID.Version != "" {
		subject = e.ID.String()
	}
	return fmt.Sprintf("index integrity: %s %s in %s and %s", e.Kind, subject, e.First, e.Second)
}

// ErrorCode reports the INTEGRITY category.
func (e *IntegrityError) ErrorCode() errs.Code { return errs.ErrCodeIntegrity }

// Index is the full collection of packages, keyed by name.
// It is built once and read-only afterwards, so all methods are safe for
// concurrent use.
type Index struct {
	byName  map[string]*registry.Package
	records int
}

// New builds an index from packages already in memory, applying the same
// integrity checks as [Build].
func New(pkgs ...*registry.Package) (*Index, error) {
	w := newWriter(len(pkgs))
	for _, p := range pkgs {
		if err := w.insert(p); err != nil {
			return nil, err
		}
	}
	return w.idx, nil
}

// Package returns the package with the given name, or nil.
func (x *Index) Package(name string) *registry.Package { return x.byName[name] }

// Record returns the version record with the given identity, or nil.
func (x *Index) Record(id registry.ID) *registry.VersionRecord {
	p := x.byName[id.Name]
	if p == nil {
		return nil
	}
	return p.Version(id.Version)
}

// Len returns the number of packages.
func (x *Index) Len() int { return len(x.byName) }

// RecordCount returns the number of version records across all packages.
func (x *Index) RecordCount() int { return x.records }

// Names returns all package names in sorted order.
func (x *Index) Names() []string { return slices.Sorted(maps.Keys(x.byName)) }

// Packages returns all packages sorted by name.
func (x *Index) Packages() []*registry.Package {
	pkgs := make([]*registry.Package, 0, len(x.byName))
	for _, name := range x.Names() {
		pkgs = append(pkgs, x.byName[name])
	}
	return pkgs
}

// All iterates over every version record, package by package in name order
// and newest-first within a package.
func (x *Index) All() iter.Seq[*registry.VersionRecord] {
	return func(yield func(*registry.VersionRecord) bool) {
		for _, p := range x.Packages() {
			for _, r := range p.Versions {
				if !yield(r) {
					return
				}
			}
		}
	}
}

// Equal reports whether x and o hold structurally equal packages.
func (x *Index) Equal(o *Index) bool {
	return x.records == o.records &&
		maps.EqualFunc(x.byName, o.byName, (*registry.Package).Equal)
}

// writer is the single owner of an Index under construction. All integrity
// checks happen here, so insertion order does not affect which errors are
// detected.
type writer struct {
	idx  *Index
	seen map[registry.ID]string // identity -> source of first declaration
}

func newWriter(hint int) *writer {
	return &writer{
		idx:  &Index{byName: make(map[string]*registry.Package, hint)},
		seen: make(map[registry.ID]string),
	}
}

func source(p *registry.Package) string {
	if p.Path != "" {
		return p.Path
	}
	return "package " + p.Name
}

func (w *writer) insert(p *registry.Package) error {
	src := source(p)
	for _, r := range p.Versions {
		if r.Name != p.Name {
			return &IntegrityError{Kind: MixedNames, ID: r.ID(), First: p.Name, Second: src}
		}
	}
	for _, r := range p.Versions {
		id := r.ID()
		if first, ok := w.seen[id]; ok {
			return &IntegrityError{Kind: DuplicateVersion, ID: id, First: first, Second: src}
		}
		w.seen[id] = src
	}
	if prev, ok := w.idx.byName[p.Name]; ok {
		return &IntegrityError{Kind: DuplicatePackage, ID: registry.ID{Name: p.Name}, First: source(prev), Second: src}
	}
	w.idx.byName[p.Name] = p
	w.idx.records += len(p.Versions)
	return nil
}
