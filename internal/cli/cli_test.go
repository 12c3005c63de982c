package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/indexgraph/internal/testindex"
	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/registry"
)

// syncBuffer is shared by the logger and the spinner goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// isolate points the config and cache locations at fresh temp dirs.
func isolate(t *testing.T) (configHome, cacheHome string) {
	t.Helper()
	configHome, cacheHome = t.TempDir(), t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configHome)
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	return configHome, cacheHome
}

// fixture writes a small index:
//
//	app 1.0.0 -> serde ^1.0, rand ^0.8 (missing), criterion (dev)
//	serde 1.0.0, 1.0.150, 2.0.0-alpha.1
//	cli 0.1.0 -> app ^1.0, serde ^1 renamed to ser
func fixture(t *testing.T) string {
	t.Helper()
	old := testindex.V("serde", "1.0.0")
	old.Yanked = true
	return testindex.Write(t,
		[]testindex.Version{
			testindex.V("app", "1.0.0",
				testindex.D("serde", "^1.0"),
				testindex.D("rand", "^0.8"),
				testindex.D("criterion", "^0.5").Dev(),
			),
		},
		[]testindex.Version{
			old,
			testindex.V("serde", "1.0.150"),
			testindex.V("serde", "2.0.0-alpha.1"),
		},
		[]testindex.Version{
			testindex.V("cli", "0.1.0",
				testindex.D("app", "^1.0"),
				testindex.D("serde", "^1").As("ser"),
			),
		},
	)
}

// run executes the root command and returns its standard output and the
// log output.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	logs := &syncBuffer{}
	c := New(logs, log.DebugLevel)
	root := c.RootCommand()
	root.SilenceErrors = true

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), logs.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, logs, err := run(t, args...)
	if err != nil {
		t.Fatalf("%v: %v\nlogs:\n%s", args, err, logs)
	}
	return out
}

func TestLoad(t *testing.T) {
	isolate(t)
	root := fixture(t)

	out := mustRun(t, "load", "--index", root, "--unresolved")
	for _, want := range []string{
		"3 packages",
		"5 versions",
		"3 edges",
		"fresh",
		"1 unresolved dependencies",
		"app@1.0.0: rand ^0.8",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("load output missing %q:\n%s", want, out)
		}
	}
}

func TestLoadUsesCache(t *testing.T) {
	_, cacheHome := isolate(t)
	root := fixture(t)

	mustRun(t, "load", "--index", root)
	out := mustRun(t, "load", "--index", root)
	if !strings.Contains(out, "cached") {
		t.Errorf("second load not served from cache:\n%s", out)
	}

	out = mustRun(t, "load", "--index", root, "--refresh")
	if !strings.Contains(out, "fresh") {
		t.Errorf("--refresh served from cache:\n%s", out)
	}

	out = mustRun(t, "cache", "path")
	if got, want := strings.TrimSpace(out), filepath.Join(cacheHome, appName); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}

	out = mustRun(t, "cache", "clear")
	if !strings.Contains(out, "Cleared 1 cached entries") {
		t.Errorf("cache clear output:\n%s", out)
	}
	out = mustRun(t, "load", "--index", root)
	if !strings.Contains(out, "fresh") {
		t.Errorf("load after clear served from cache:\n%s", out)
	}
}

func TestLoadNoCache(t *testing.T) {
	_, cacheHome := isolate(t)
	root := fixture(t)

	mustRun(t, "load", "--index", root, "--no-cache")
	if _, err := os.Stat(filepath.Join(cacheHome, appName)); !os.IsNotExist(err) {
		t.Errorf("--no-cache created the cache dir: %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	isolate(t)
	root := fixture(t)
	testindex.WriteFile(t, root, registry.ShardPath("broken"), "{not json}\n")

	out := mustRun(t, "load", "--index", root)
	if !strings.Contains(out, "skipped") || !strings.Contains(out, "broken") {
		t.Errorf("malformed file not reported:\n%s", out)
	}

	_, _, err := run(t, "load", "--index", root, "--strict")
	if !errs.Is(err, errs.ErrCodeParse) {
		t.Errorf("strict load error = %v, want PARSE", err)
	}
}

func TestLoadIntegrityError(t *testing.T) {
	isolate(t)
	root := fixture(t)
	testindex.WriteFile(t, root, "zz/zz/serde-copy", testindex.File(testindex.V("serde", "1.0.150")))

	_, _, err := run(t, "load", "--index", root)
	if !errs.Is(err, errs.ErrCodeIntegrity) {
		t.Errorf("load error = %v, want INTEGRITY", err)
	}
}

func TestResolve(t *testing.T) {
	isolate(t)
	root := fixture(t)

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr errs.Code
	}{
		{name: "newest match", args: []string{"serde", "^1.0"}, want: "serde@1.0.150\n"},
		{name: "exact yanked", args: []string{"serde", "=1.0.0"}, want: "serde@1.0.0 (yanked)\n"},
		{name: "all", args: []string{"serde", ">=1.0.0, <2", "--all"}, want: "serde@1.0.150\nserde@1.0.0 (yanked)\n"},
		{name: "prerelease", args: []string{"serde", "^2.0.0-alpha"}, want: "serde@2.0.0-alpha.1\n"},
		{name: "no match", args: []string{"serde", "^3"}, wantErr: errs.ErrCodeVersionNotFound},
		{name: "unknown package", args: []string{"nope", "^1"}, wantErr: errs.ErrCodePackageNotFound},
		{name: "bad requirement", args: []string{"serde", "not-a-req"}, wantErr: errs.ErrCodeInvalidVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, append([]string{"resolve", "--index", root}, tt.args...)...)
			if tt.wantErr != "" {
				if !errs.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestDeps(t *testing.T) {
	isolate(t)
	root := fixture(t)

	out := mustRun(t, "deps", "--index", root, "cli@0.1.0", "--transitive")
	if want := "app@1.0.0\nserde@1.0.150\n"; out != want {
		t.Errorf("transitive = %q, want %q", out, want)
	}

	out = mustRun(t, "deps", "--index", root, "cli@0.1.0")
	for _, want := range []string{"app", "serde (as ser)", "1.0.150", "normal"} {
		if !strings.Contains(out, want) {
			t.Errorf("deps table missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, "deps", "--index", root, "serde@1.0.150")
	if !strings.Contains(out, "no resolved dependencies") {
		t.Errorf("leaf output:\n%s", out)
	}

	_, _, err := run(t, "deps", "--index", root, "serde@9.9.9")
	if !errs.Is(err, errs.ErrCodeVersionNotFound) {
		t.Errorf("unknown version error = %v", err)
	}
	_, _, err = run(t, "deps", "--index", root, "serde")
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("malformed identity error = %v", err)
	}
}

func TestDependents(t *testing.T) {
	isolate(t)
	root := fixture(t)

	out := mustRun(t, "dependents", "--index", root, "serde")
	if want := "app@1.0.0\ncli@0.1.0\n"; out != want {
		t.Errorf("dependents = %q, want %q", out, want)
	}
	out = mustRun(t, "dependents", "--index", root, "app", "--direct")
	if want := "cli@0.1.0\n"; out != want {
		t.Errorf("direct dependents = %q, want %q", out, want)
	}
	out = mustRun(t, "dependents", "--index", root, "cli")
	if out != "" {
		t.Errorf("root package has dependents: %q", out)
	}
	_, _, err := run(t, "dependents", "--index", root, "nope")
	if !errs.Is(err, errs.ErrCodePackageNotFound) {
		t.Errorf("unknown package error = %v", err)
	}
}

func TestDependentsSkipOptional(t *testing.T) {
	isolate(t)
	root := testindex.Write(t,
		[]testindex.Version{testindex.V("a", "1.0.0", testindex.D("b", "^1").Opt())},
		[]testindex.Version{testindex.V("b", "1.0.0")},
	)

	out := mustRun(t, "dependents", "--index", root, "b", "--no-cache")
	if out != "a@1.0.0\n" {
		t.Errorf("dependents = %q", out)
	}
	out = mustRun(t, "dependents", "--index", root, "b", "--no-cache", "--skip-optional")
	if out != "" {
		t.Errorf("--skip-optional dependents = %q", out)
	}
}

func TestTop(t *testing.T) {
	isolate(t)
	root := fixture(t)

	out := mustRun(t, "top", "--index", root, "-n", "1")
	if !strings.Contains(out, "serde") || strings.Contains(out, "app") {
		t.Errorf("top output:\n%s", out)
	}
}

func TestRender(t *testing.T) {
	isolate(t)
	root := fixture(t)

	out := mustRun(t, "render", "--index", root, "cli@0.1.0", "--detailed")
	for _, want := range []string{"digraph G {", `"cli@0.1.0" -> "app@1.0.0"`, `label="^1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT missing %q:\n%s", want, out)
		}
	}

	path := filepath.Join(t.TempDir(), "cli.dot")
	mustRun(t, "render", "--index", root, "cli@0.1.0", "-o", path)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("written file is not DOT:\n%s", data)
	}

	_, _, err = run(t, "render", "--index", root, "cli@0.1.0", "--format", "pdf")
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("unknown format error = %v", err)
	}
}

func TestOutputFormat(t *testing.T) {
	tests := []struct {
		flag, output, want string
	}{
		{"", "", "dot"},
		{"", "graph.svg", "svg"},
		{"", "graph.SVG", "svg"},
		{"", "graph.txt", "dot"},
		{"dot", "graph.svg", "dot"},
		{"SVG", "", "svg"},
		{"", "graph.json", "json"},
	}
	for _, tt := range tests {
		got, err := outputFormat(tt.flag, tt.output)
		if err != nil {
			t.Errorf("outputFormat(%q, %q): %v", tt.flag, tt.output, err)
			continue
		}
		if got != tt.want {
			t.Errorf("outputFormat(%q, %q) = %q, want %q", tt.flag, tt.output, got, tt.want)
		}
	}
}

func TestConfigFile(t *testing.T) {
	configHome, cacheHome := isolate(t)
	root := fixture(t)

	cfg := "registry = " + quote(root) + "\nbogus = 1\n\n[cache]\nbackend = \"none\"\n"
	testindex.WriteFile(t, configHome, filepath.Join(appName, "config.toml"), cfg)

	out, logs, err := run(t, "load")
	if err != nil {
		t.Fatalf("load: %v\n%s", err, logs)
	}
	if !strings.Contains(out, "3 packages") {
		t.Errorf("config registry not used:\n%s", out)
	}
	if !strings.Contains(logs, "unknown config key") || !strings.Contains(logs, "bogus") {
		t.Errorf("unknown key not reported:\n%s", logs)
	}
	if _, err := os.Stat(filepath.Join(cacheHome, appName)); !os.IsNotExist(err) {
		t.Errorf("backend none wrote a cache: %v", err)
	}
}

func TestConfigFlagOverrides(t *testing.T) {
	configHome, _ := isolate(t)
	root := fixture(t)

	cfg := "registry = \"/does/not/exist\"\n"
	path := testindex.WriteFile(t, configHome, "custom.toml", cfg)

	_, _, err := run(t, "load", "--config", path)
	if !errs.Is(err, errs.ErrCodeNotFound) {
		t.Errorf("missing registry error = %v", err)
	}
	mustRun(t, "load", "--config", path, "--registry", root)

	_, _, err = run(t, "load", "--config", filepath.Join(configHome, "missing.toml"))
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("missing explicit config error = %v", err)
	}
}

func TestCompletion(t *testing.T) {
	isolate(t)
	out := mustRun(t, "completion", "bash")
	if !strings.Contains(out, appName) {
		t.Errorf("bash completion does not mention %s", appName)
	}
	if _, _, err := run(t, "completion", "tcsh"); err == nil {
		t.Error("unsupported shell accepted")
	}
}

func quote(s string) string {
	return "'" + s + "'"
}
