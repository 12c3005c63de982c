package registry

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	lru "github.com/hashicorp/golang-lru/v2"

	errs "github.com/matzehuels/indexgraph/pkg/errors"
)

// constraintCacheSize bounds the memo of parsed constraint expressions.
// A full crates.io index declares a few tens of thousands of distinct
// requirement strings, most of them "^x.y" forms shared by many records.
const constraintCacheSize = 1 << 15

var constraints, _ = lru.New[string, *semver.Constraints](constraintCacheSize)

// Requirement is an immutable semver range parsed from a dependency
// declaration. The zero value is not usable; use [ParseRequirement].
type Requirement struct {
	raw string
	c   *semver.Constraints
}

// ParseRequirement parses a Cargo-style version requirement such as "^1.2",
// "~0.3.1", ">=1.0, <2.0", "1.*" or "*". An empty string is treated as "*".
func ParseRequirement(s string) (*Requirement, error) {
	expr := normalizeRequirement(s)
	if c, ok := constraints.Get(expr); ok {
		return &Requirement{raw: s, c: c}, nil
	}
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidVersion, err, "invalid requirement %q", s)
	}
	constraints.Add(expr, c)
	return &Requirement{raw: s, c: c}, nil
}

// MustParseRequirement is like [ParseRequirement] but panics on error.
// It is intended for tests and static tables.
func MustParseRequirement(s string) *Requirement {
	r, err := ParseRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Matches reports whether v satisfies the requirement.
func (r *Requirement) Matches(v *semver.Version) bool {
	if r == nil || v == nil {
		return false
	}
	return r.c.Check(v)
}

// String returns the requirement exactly as declared.
func (r *Requirement) String() string {
	if r == nil {
		return ""
	}
	return r.raw
}

// Equal reports whether two requirements were declared identically.
func (r *Requirement) Equal(o *Requirement) bool {
	return r.String() == o.String()
}

// normalizeRequirement rewrites a Cargo requirement into the dialect
// understood by semver.NewConstraint. Cargo's default operator is caret,
// whereas an operator-less comparator means equality in the target dialect.
func normalizeRequirement(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "*"
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		// "1.2.*" keeps its wildcard meaning; a caret would widen it to <2.0.0.
		if p != "" && p[0] >= '0' && p[0] <= '9' && !hasWildcard(p) {
			p = "^" + p
		}
		parts[i] = p
	}
	return strings.Join(parts, ", ")
}

// hasWildcard reports whether a bare comparator uses "*", "x" or "X" in
// its major.minor.patch part. Pre-release and build tags are not looked at.
func hasWildcard(p string) bool {
	core, _, _ := strings.Cut(p, "+")
	core, _, _ = strings.Cut(core, "-")
	for _, part := range strings.Split(core, ".") {
		switch part {
		case "*", "x", "X":
			return true
		}
	}
	return false
}

// ParseVersion parses a strict semantic version ("1.2.3", "1.0.0-rc.1").
// Registry versions are always complete, so shorthand forms are rejected.
func ParseVersion(s string) (*semver.Version, error) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeInvalidVersion, err, "invalid version %q", s)
	}
	return v, nil
}
