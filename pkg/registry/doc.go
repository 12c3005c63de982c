// Package registry models a package registry's on-disk index and reads it.
//
// # Index layout
//
// A registry index is a directory tree with one file per package, sharded
// into prefix directories by package name:
//
//	index/
//	  config.json
//	  1/a
//	  2/ab
//	  3/a/abc
//	  se/rd/serde
//
// Each package file holds one JSON object per line, one line per published
// version, with the newest version appended last:
//
//	{"name":"serde","vers":"1.0.0","deps":[...],"cksum":"...","features":{},"yanked":false}
//
// # Reading
//
// [Files] lazily enumerates the package files below a root, skipping any
// .git directory and the depth-1 shard level. [ParseFile] turns one file into
// a [Package] whose Versions are ordered newest-first.
//
//	for path, err := range registry.Files(root, onSkip) {
//	    if err != nil {
//	        return err
//	    }
//	    pkg, err := registry.ParseFile(path)
//	    ...
//	}
//
// # Requirements
//
// A [Requirement] is a Cargo-flavoured semver range: comma-separated
// comparators that must all hold, where a bare version such as "1.2" means
// "^1.2". Matching follows semver precedence and excludes pre-release
// versions unless the requirement itself names one.
package registry
