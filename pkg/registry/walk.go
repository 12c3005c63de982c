package registry

import (
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	errs "github.com/matzehuels/indexgraph/pkg/errors"
)

// shardDepth is the depth of the name-prefix shard directories. Package
// files always live strictly below it.
const shardDepth = 1

// skipDirs are never descended into. Cargo keeps sparse-protocol entries
// under .cache, which is not the index file format.
var skipDirs = map[string]bool{".git": true, ".cache": true}

// Files lazily enumerates package-metadata files below root.
//
// Only regular files deeper than the shard level are yielded, so root-level
// files such as config.json are never treated as packages. Directories named
// .git or .cache are pruned wherever they appear, so only the package files
// of a full index checkout are yielded. A symlinked root is followed and the
// yielded paths stay below root as given.
//
// Entries below root that cannot be read are passed to skip (which may be
// nil) and the walk continues. If root itself cannot be read, the sequence
// yields a single IO error and ends.
//
// Traversal order follows the filesystem and must not be relied on for
// anything but display.
func Files(root string, skip func(path string, err error)) iter.Seq2[string, error] {
	if skip == nil {
		skip = func(string, error) {}
	}
	return func(yield func(string, error) bool) {
		info, err := os.Stat(root)
		if err != nil {
			yield("", errs.Wrap(errs.ErrCodeIO, err, "open index %s", root))
			return
		}
		if !info.IsDir() {
			yield("", errs.New(errs.ErrCodeIO, "index %s is not a directory", root))
			return
		}
		resolved, err := filepath.EvalSymlinks(root)
		if err != nil {
			yield("", errs.Wrap(errs.ErrCodeIO, err, "resolve index %s", root))
			return
		}

		_ = filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == resolved {
					yield("", errs.Wrap(errs.ErrCodeIO, err, "read index %s", root))
					return filepath.SkipAll
				}
				skip(path, err)
				return nil
			}
			if d.IsDir() {
				if skipDirs[d.Name()] {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || depth(resolved, path) <= shardDepth {
				return nil
			}
			if resolved != root {
				rel, _ := filepath.Rel(resolved, path)
				path = filepath.Join(root, rel)
			}
			if !yield(path, nil) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// ShardPath returns the path of a package's file relative to the index root,
// following the crates.io sharding scheme: "1/a", "2/ab", "3/a/abc" and
// "se/rd/serde" for names of four or more characters.
func ShardPath(name string) string {
	name = strings.ToLower(name)
	switch len(name) {
	case 0:
		return ""
	case 1, 2:
		return filepath.Join(strconv.Itoa(len(name)), name)
	case 3:
		return filepath.Join("3", name[:1], name)
	}
	return filepath.Join(name[:2], name[2:4], name)
}
