package cli

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/indexgraph/internal/testindex"
	errs "github.com/matzehuels/indexgraph/pkg/errors"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := testindex.WriteFile(t, dir, "config.toml", `
registry = "/srv/index"
workers = 4
strict = true
skip_optional = true
colour = "blue"

[cache]
backend = "redis"
redis_url = "redis://localhost:6379/0"
ttl = "90m"
typo = 1
`)

	cfg, unknown, err := loadConfig(path, true)
	if err != nil {
		t.Fatal(err)
	}
	want := Config{
		Registry:     "/srv/index",
		Workers:      4,
		Strict:       true,
		SkipOptional: true,
		Cache: CacheConfig{
			Backend:  backendRedis,
			RedisURL: "redis://localhost:6379/0",
			TTL:      Duration{90 * time.Minute},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"cache.typo", "colour"}, unknown); diff != "" {
		t.Errorf("unknown keys (-want +got):\n%s", diff)
	}
}

func TestLoadConfigMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg, unknown, err := loadConfig(path, false)
	if err != nil {
		t.Fatalf("implicit missing config: %v", err)
	}
	if diff := cmp.Diff(defaultConfig(), cfg); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
	if len(unknown) != 0 {
		t.Errorf("unknown = %v", unknown)
	}

	if _, _, err := loadConfig(path, true); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("explicit missing config error = %v", err)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "registry = \n"},
		{"bad duration", "[cache]\nttl = \"soon\"\n"},
		{"unknown backend", "[cache]\nbackend = \"memcached\"\n"},
		{"redis without url", "[cache]\nbackend = \"redis\"\n"},
		{"negative workers", "workers = -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testindex.WriteFile(t, t.TempDir(), "config.toml", tt.content)
			if _, _, err := loadConfig(path, true); !errs.Is(err, errs.ErrCodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	got, err := configPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, appName, "config.toml"); got != want {
		t.Errorf("configPath() = %q, want %q", got, want)
	}
}

func TestCacheDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	c := &CLI{cfg: defaultConfig()}
	got, err := c.cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, appName); got != want {
		t.Errorf("cacheDir() = %q, want %q", got, want)
	}

	c.cfg.Cache.Dir = "/var/cache/ig"
	if got, _ := c.cacheDir(); got != "/var/cache/ig" {
		t.Errorf("configured cacheDir() = %q", got)
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	if err := d.UnmarshalText([]byte("1h30m")); err != nil {
		t.Fatal(err)
	}
	if d.Duration != 90*time.Minute {
		t.Errorf("Duration = %v", d.Duration)
	}
	b, err := d.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "1h30m0s" {
		t.Errorf("MarshalText = %q", b)
	}
}
