package depgraph

import (
	"github.com/matzehuels/indexgraph/pkg/index"
	"github.com/matzehuels/indexgraph/pkg/registry"
)

// Resolve returns the newest version of the dependency's package that
// satisfies its requirement, or nil when the package is not in the index or
// no version matches. Features and yanked status are ignored; renamed
// dependencies are looked up by their real package name.
func Resolve(dep registry.Dependency, idx *index.Index) *registry.VersionRecord {
	pkg := idx.Package(dep.PackageName())
	if pkg == nil {
		return nil
	}
	for _, r := range pkg.Versions {
		if dep.Req.Matches(r.Version) {
			return r
		}
	}
	return nil
}
