// Package testindex builds small registry index fixtures for tests.
package testindex

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/indexgraph/pkg/registry"
)

// Dep is a dependency declaration in a fixture.
type Dep struct {
	Name     string
	Req      string
	Kind     string
	Optional bool
	Package  string
	Target   string
}

// D declares a normal dependency.
func D(name, req string) Dep { return Dep{Name: name, Req: req} }

// Dev returns a copy of d with kind "dev".
func (d Dep) Dev() Dep { d.Kind = "dev"; return d }

// Build returns a copy of d with kind "build".
func (d Dep) Build() Dep { d.Kind = "build"; return d }

// Opt returns a copy of d marked optional.
func (d Dep) Opt() Dep { d.Optional = true; return d }

// As returns a copy of d renamed to alias, pointing at its original package.
func (d Dep) As(alias string) Dep { d.Package, d.Name = d.Name, alias; return d }

// Version is one version line in a fixture.
type Version struct {
	Name   string
	Vers   string
	Deps   []Dep
	Yanked bool
}

// V declares a version.
func V(name, vers string, deps ...Dep) Version {
	return Version{Name: name, Vers: vers, Deps: deps}
}

type line struct {
	Name     string              `json:"name"`
	Vers     string              `json:"vers"`
	Deps     []dep               `json:"deps"`
	Cksum    string              `json:"cksum"`
	Features map[string][]string `json:"features"`
	Yanked   bool                `json:"yanked"`
}

type dep struct {
	Name            string   `json:"name"`
	Req             string   `json:"req"`
	Features        []string `json:"features"`
	Optional        bool     `json:"optional"`
	DefaultFeatures bool     `json:"default_features"`
	Target          *string  `json:"target"`
	Kind            string   `json:"kind,omitempty"`
	Package         string   `json:"package,omitempty"`
}

// Line renders v as an index line.
func Line(v Version) string {
	l := line{
		Name:     v.Name,
		Vers:     v.Vers,
		Deps:     []dep{},
		Cksum:    "cksum-" + v.Name + "-" + v.Vers,
		Features: map[string][]string{},
		Yanked:   v.Yanked,
	}
	for _, d := range v.Deps {
		jd := dep{
			Name:            d.Name,
			Req:             d.Req,
			Features:        []string{},
			Optional:        d.Optional,
			DefaultFeatures: true,
			Kind:            d.Kind,
			Package:         d.Package,
		}
		if d.Target != "" {
			jd.Target = &d.Target
		}
		l.Deps = append(l.Deps, jd)
	}
	b, err := json.Marshal(l)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// File renders versions, oldest first, as the content of one package file.
func File(versions ...Version) string {
	lines := make([]string, len(versions))
	for i, v := range versions {
		lines[i] = Line(v)
	}
	return strings.Join(lines, "\n") + "\n"
}

// Package parses versions (oldest first) into a Package without touching disk.
func Package(t testing.TB, versions ...Version) *registry.Package {
	t.Helper()
	p, err := registry.Parse(strings.NewReader(File(versions...)), "")
	if err != nil {
		t.Fatalf("fixture package: %v", err)
	}
	return p
}

// Write creates an index directory in a fresh temp dir with one file per
// package, each placed at its shard path, plus a root config.json.
// Every argument is one package's versions, oldest first.
func Write(t testing.TB, pkgs ...[]Version) string {
	t.Helper()
	root := t.TempDir()
	WriteFile(t, root, "config.json", `{"dl":"https://example.invalid"}`)
	for _, versions := range pkgs {
		WriteFile(t, root, registry.ShardPath(versions[0].Name), File(versions...))
	}
	return root
}

// WriteFile writes content to rel below root, creating directories.
func WriteFile(t testing.TB, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
