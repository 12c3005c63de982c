package source

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	errs "github.com/matzehuels/indexgraph/pkg/errors"
)

func TestLocateDirectory(t *testing.T) {
	dir := t.TempDir()
	got, err := Locate(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != dir {
		t.Errorf("Locate = %q, want %q", got, dir)
	}
}

func TestLocateErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		arg  string
		code errs.Code
	}{
		{"missing", filepath.Join(dir, "missing"), errs.ErrCodeNotFound},
		{"file", file, errs.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Locate(tt.arg)
			if !errs.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLocateCratesIO(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CARGO_HOME", home)
	base := filepath.Join(home, "registry", "index")

	if _, err := Locate(CratesIO); !errs.Is(err, errs.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND without an index", err)
	}

	old := filepath.Join(base, "github.com-1ecc6299db9ec823")
	newer := filepath.Join(base, "index.crates.io-6f17d22bba15001f")
	for _, d := range []string{old, newer} {
		if err := os.MkdirAll(filepath.Join(d, "se", "rd"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(base, "stray"), nil, 0644); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	if err := os.Chtimes(old, now.Add(-time.Hour), now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(newer, now, now); err != nil {
		t.Fatal(err)
	}

	for _, arg := range []string{"", CratesIO} {
		got, err := Locate(arg)
		if err != nil {
			t.Fatalf("Locate(%q): %v", arg, err)
		}
		if got != newer {
			t.Errorf("Locate(%q) = %q, want %q", arg, got, newer)
		}
	}
}

func TestLocateCratesIOSkipsSparse(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CARGO_HOME", home)
	base := filepath.Join(home, "registry", "index")

	sparse := filepath.Join(base, "index.crates.io-1949cf8c6b5b557f")
	if err := os.MkdirAll(filepath.Join(sparse, ".cache", "se", "rd"), 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := Locate(CratesIO); !errs.Is(err, errs.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND with only a sparse cache", err)
	}

	full := filepath.Join(base, "github.com-1ecc6299db9ec823")
	if err := os.MkdirAll(filepath.Join(full, "3", "s"), 0755); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	if err := os.Chtimes(full, now.Add(-time.Hour), now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(sparse, now, now); err != nil {
		t.Fatal(err)
	}

	got, err := Locate(CratesIO)
	if err != nil {
		t.Fatal(err)
	}
	if got != full {
		t.Errorf("Locate = %q, want %q", got, full)
	}
}

func TestCargoHomeDefault(t *testing.T) {
	t.Setenv("CARGO_HOME", "")
	t.Setenv("HOME", "/home/tester")
	got, err := CargoHome()
	if err != nil {
		t.Fatal(err)
	}
	if got != filepath.Join("/home/tester", ".cargo") {
		t.Errorf("CargoHome = %q", got)
	}
}
