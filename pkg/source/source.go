// Package source maps a registry identity to the directory holding its
// on-disk index.
//
// The default registry, crates-io, is found below Cargo's home directory
// ($CARGO_HOME, or ~/.cargo), where Cargo keeps one checkout per index URL
// under registry/index/. Only full git checkouts are usable: a sparse
// registry directory holds nothing but a .cache tree and is passed over. Any
// other identity is taken as a path to an index directory, which must also be
// a full checkout.
package source

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	errs "github.com/matzehuels/indexgraph/pkg/errors"
)

// CratesIO is the identity of the default registry.
const CratesIO = "crates-io"

// Locate returns the absolute path of the index for registry. An empty
// registry means [CratesIO].
func Locate(registry string) (string, error) {
	if registry == "" || registry == CratesIO {
		home, err := CargoHome()
		if err != nil {
			return "", err
		}
		return newestIndex(filepath.Join(home, "registry", "index"))
	}

	info, err := os.Stat(registry)
	if errors.Is(err, fs.ErrNotExist) {
		return "", errs.New(errs.ErrCodeNotFound, "registry index %s does not exist", registry)
	}
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeIO, err, "stat %s", registry)
	}
	if !info.IsDir() {
		return "", errs.New(errs.ErrCodeInvalidInput, "registry index %s is not a directory", registry)
	}
	return filepath.Abs(registry)
}

// CargoHome returns $CARGO_HOME, defaulting to ~/.cargo.
func CargoHome() (string, error) {
	if h := os.Getenv("CARGO_HOME"); h != "" {
		return filepath.Abs(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeNotFound, err, "locate cargo home")
	}
	return filepath.Join(home, ".cargo"), nil
}

// newestIndex picks the most recently modified checkout in dir. Cargo
// names them "<host>-<hash>", and a machine that has used several Cargo
// versions can have more than one for the same registry. Directories without
// any shard directory are skipped.
func newestIndex(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", errs.New(errs.ErrCodeNotFound, "no cargo registry index in %s", dir)
	}
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeIO, err, "read %s", dir)
	}

	var best string
	var bestInfo fs.FileInfo
	for _, e := range entries {
		if !e.IsDir() || !isCheckout(filepath.Join(dir, e.Name())) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if bestInfo == nil || info.ModTime().After(bestInfo.ModTime()) {
			best, bestInfo = e.Name(), info
		}
	}
	if best == "" {
		return "", errs.New(errs.ErrCodeNotFound, "no cargo registry index checkout in %s", dir)
	}
	return filepath.Join(dir, best), nil
}

// isCheckout reports whether dir has at least one directory not starting
// with a dot.
func isCheckout(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			return true
		}
	}
	return false
}
