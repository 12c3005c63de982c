package cli

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/source"
)

// Cache backends selectable in the config file.
const (
	backendFile  = "file"
	backendRedis = "redis"
	backendNone  = "none"
)

// Config is the on-disk configuration. Command-line flags override it.
type Config struct {
	Registry     string      `toml:"registry"`
	IndexPath    string      `toml:"index_path"`
	Workers      int         `toml:"workers"`
	Strict       bool        `toml:"strict"`
	SkipOptional bool        `toml:"skip_optional"`
	Cache        CacheConfig `toml:"cache"`
}

// CacheConfig selects and configures the index cache backend.
type CacheConfig struct {
	Backend  string   `toml:"backend"`
	Dir      string   `toml:"dir"`
	RedisURL string   `toml:"redis_url"`
	TTL      Duration `toml:"ttl"`
}

// Duration is a time.Duration written as a string ("24h") in TOML.
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// defaultConfig returns the configuration used when no file exists.
func defaultConfig() Config {
	return Config{
		Registry: source.CratesIO,
		Cache: CacheConfig{
			Backend: backendFile,
			TTL:     Duration{24 * time.Hour},
		},
	}
}

// configPath returns the default config location
// ($XDG_CONFIG_HOME/indexgraph/config.toml, falling back to ~/.config).
func configPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// loadConfig reads the config file at path on top of the defaults. A
// missing file is only an error when explicit is set. Unknown keys are
// returned so the caller can warn about typos.
func loadConfig(path string, explicit bool) (Config, []string, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return defaultConfig(), nil, nil
	}
	if err != nil {
		return cfg, nil, errs.Wrap(errs.ErrCodeInvalidInput, err, "load config %s", path)
	}
	if err := cfg.validate(); err != nil {
		return cfg, nil, err
	}

	var unknown []string
	for _, k := range md.Undecoded() {
		unknown = append(unknown, k.String())
	}
	sort.Strings(unknown)
	return cfg, unknown, nil
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case backendFile, backendNone:
	case backendRedis:
		if c.Cache.RedisURL == "" {
			return errs.New(errs.ErrCodeInvalidInput, "cache backend redis requires cache.redis_url")
		}
	default:
		return errs.New(errs.ErrCodeInvalidInput, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}
	if c.Workers < 0 {
		return errs.New(errs.ErrCodeInvalidInput, "workers must not be negative")
	}
	return nil
}
