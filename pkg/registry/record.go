package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/Masterminds/semver/v3"

	errs "github.com/matzehuels/indexgraph/pkg/errors"
)

// Kind classifies when a dependency is needed.
type Kind string

const (
	// KindNormal is a regular runtime dependency. An absent kind means normal.
	KindNormal Kind = "normal"
	// KindBuild is needed only to run the package's build script.
	KindBuild Kind = "build"
	// KindDev is needed only for tests, examples and benchmarks.
	KindDev Kind = "dev"
)

// ParseKind converts the index's kind field. The empty string maps to
// [KindNormal]; any other unknown value is an error.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "", KindNormal:
		return KindNormal, nil
	case KindBuild:
		return KindBuild, nil
	case KindDev:
		return KindDev, nil
	}
	return "", errs.New(errs.ErrCodeInvalidInput, "unknown dependency kind %q", s)
}

// Dependency is one declared dependency of a [VersionRecord].
// It is immutable once parsed.
type Dependency struct {
	Name            string       // Name as declared (the local alias when renamed)
	Req             *Requirement // Accepted version range
	Features        []string     // Features enabled on the dependency
	Optional        bool         // Only pulled in through a feature
	DefaultFeatures bool         // Whether the dependency's default features are enabled
	Target          string       // Platform cfg expression, empty for all targets
	Kind            Kind         // normal, build or dev
	Package         string       // Real package name when renamed, empty otherwise
}

// PackageName returns the name of the package the dependency refers to,
// which differs from Name when the dependency is renamed.
func (d Dependency) PackageName() string {
	if d.Package != "" {
		return d.Package
	}
	return d.Name
}

// Equal reports whether d and o are structurally equal.
func (d Dependency) Equal(o Dependency) bool {
	return d.Name == o.Name &&
		d.Req.Equal(o.Req) &&
		slices.Equal(d.Features, o.Features) &&
		d.Optional == o.Optional &&
		d.DefaultFeatures == o.DefaultFeatures &&
		d.Target == o.Target &&
		d.Kind == o.Kind &&
		d.Package == o.Package
}

// String formats the declaration as "name req", e.g. "serde ^1.0".
func (d Dependency) String() string {
	return fmt.Sprintf("%s %s", d.PackageName(), d.Req)
}

// ID identifies a version record. It is unique across a well-formed index.
type ID struct {
	Name    string
	Version string
}

// String formats the identity as "name@version".
func (id ID) String() string { return id.Name + "@" + id.Version }

// ParseID parses a "name@version" string.
func ParseID(s string) (ID, error) {
	name, version, err := errs.SplitIdentity(s)
	if err != nil {
		return ID{}, err
	}
	return ID{Name: name, Version: version}, nil
}

// VersionRecord is one published version of a package.
// It is immutable after construction and shared by reference between its
// [Package] and any graph built from the index.
type VersionRecord struct {
	Name     string
	Version  *semver.Version
	Deps     []Dependency
	Checksum string
	Features map[string][]string
	Yanked   bool
	Links    string // Native library the package links, if any
}

// ID returns the record's (name, version) identity.
func (r *VersionRecord) ID() ID {
	return ID{Name: r.Name, Version: r.Version.Original()}
}

// String formats the record as "name@version".
func (r *VersionRecord) String() string { return r.ID().String() }

// Equal reports whether r and o are structurally equal, field by field.
func (r *VersionRecord) Equal(o *VersionRecord) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Name == o.Name &&
		r.Version.Original() == o.Version.Original() &&
		slices.EqualFunc(r.Deps, o.Deps, Dependency.Equal) &&
		r.Checksum == o.Checksum &&
		maps.EqualFunc(r.Features, o.Features, slices.Equal[[]string]) &&
		r.Yanked == o.Yanked &&
		r.Links == o.Links
}

// Package is every published version of one package, newest first.
// A Package always holds at least one record.
type Package struct {
	Name     string
	Versions []*VersionRecord
	Path     string // Index file the package was read from, empty if built in memory
}

// Latest returns the newest declared version.
func (p *Package) Latest() *VersionRecord { return p.Versions[0] }

// Version returns the record with the given version string, or nil.
func (p *Package) Version(v string) *VersionRecord {
	for _, r := range p.Versions {
		if r.Version.Original() == v {
			return r
		}
	}
	return nil
}

// Equal reports whether p and o hold structurally equal records in the same
// order.
func (p *Package) Equal(o *Package) bool {
	return p.Name == o.Name &&
		p.Path == o.Path &&
		slices.EqualFunc(p.Versions, o.Versions, (*VersionRecord).Equal)
}
