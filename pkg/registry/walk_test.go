package registry

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	errs "github.com/matzehuels/indexgraph/pkg/errors"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "config.json", `{"dl":"x"}`)
	writeFile(t, root, "1/a", "")
	writeFile(t, root, "3/b/bcd", "")
	writeFile(t, root, "se/rd/serde", "")
	writeFile(t, root, ".git/objects/ab/cdef", "")
	writeFile(t, root, "se/.git/HEAD", "")
	writeFile(t, root, ".cache/se/rd/serde", "")
	writeFile(t, root, "3/b/.cache/bcd", "")

	var got []string
	for path, err := range Files(root, nil) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rel, _ := filepath.Rel(root, path)
		got = append(got, filepath.ToSlash(rel))
	}
	slices.Sort(got)

	want := []string{"1/a", "3/b/bcd", "se/rd/serde"}
	if !slices.Equal(got, want) {
		t.Errorf("Files() = %v, want %v", got, want)
	}
}

func TestFilesSymlinkRoot(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "checkout")
	writeFile(t, target, "1/a", "")
	writeFile(t, target, "se/rd/serde", "")
	root := filepath.Join(dir, "index")
	if err := os.Symlink(target, root); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	var got []string
	for path, err := range Files(root, nil) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, filepath.ToSlash(rel))
	}
	slices.Sort(got)

	want := []string{"1/a", "se/rd/serde"}
	if !slices.Equal(got, want) {
		t.Errorf("Files(symlink) = %v, want %v", got, want)
	}
}

func TestFilesStopsEarly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "1/a", "")
	writeFile(t, root, "1/b", "")
	writeFile(t, root, "1/c", "")

	n := 0
	for range Files(root, nil) {
		n++
		break
	}
	if n != 1 {
		t.Errorf("iterated %d times after break", n)
	}
}

func TestFilesMissingRoot(t *testing.T) {
	var errsSeen []error
	for path, err := range Files(filepath.Join(t.TempDir(), "missing"), nil) {
		if path != "" {
			t.Errorf("unexpected path %q", path)
		}
		errsSeen = append(errsSeen, err)
	}
	if len(errsSeen) != 1 || !errs.Is(errsSeen[0], errs.ErrCodeIO) {
		t.Errorf("expected one IO error, got %v", errsSeen)
	}
}

func TestFilesRootIsFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file", "")
	for _, err := range Files(filepath.Join(root, "file"), nil) {
		if !errs.Is(err, errs.ErrCodeIO) {
			t.Errorf("expected IO error, got %v", err)
		}
	}
}

func TestFilesSkipsUnreadableDirectories(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}
	root := t.TempDir()
	writeFile(t, root, "1/a", "")
	writeFile(t, root, "2/locked/x", "")
	locked := filepath.Join(root, "2", "locked")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0755) })

	var skipped []string
	var got []string
	for path, err := range Files(root, func(p string, _ error) { skipped = append(skipped, p) }) {
		if err != nil {
			t.Fatalf("unexpected fatal error: %v", err)
		}
		got = append(got, path)
	}
	if len(got) != 1 {
		t.Errorf("got %v, want only 1/a", got)
	}
	if len(skipped) != 1 || skipped[0] != locked {
		t.Errorf("skipped = %v, want [%s]", skipped, locked)
	}
}

func TestShardPath(t *testing.T) {
	tests := []struct{ name, want string }{
		{"a", "1/a"},
		{"cc", "2/cc"},
		{"syn", "3/s/syn"},
		{"serde", "se/rd/serde"},
		{"Inflector", "in/fl/inflector"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := filepath.ToSlash(ShardPath(tt.name)); got != tt.want {
			t.Errorf("ShardPath(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
