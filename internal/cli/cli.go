package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/indexgraph/pkg/buildinfo"
	"github.com/matzehuels/indexgraph/pkg/cache"
	errs "github.com/matzehuels/indexgraph/pkg/errors"
)

// appName is the application name used for directories and display.
const appName = "indexgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// status receives spinners and interactive output; it is the writer
	// the logger was created with.
	status io.Writer

	cfg        Config
	configFile string
	noCache    bool
	refresh    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		status: w,
		cfg:    defaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	var (
		registry     string
		indexPath    string
		workers      int
		strict       bool
		skipOptional bool
	)

	root := &cobra.Command{
		Use:   appName,
		Short: "indexgraph builds dependency graphs from a package registry index",
		Long: `indexgraph loads a package registry's on-disk index, resolves every
declared dependency to one concrete version and answers questions about the
resulting graph of exact package versions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfigFile(); err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("registry") {
				c.cfg.Registry = registry
			}
			if flags.Changed("index") {
				c.cfg.IndexPath = indexPath
			}
			if flags.Changed("workers") {
				c.cfg.Workers = workers
			}
			if flags.Changed("strict") {
				c.cfg.Strict = strict
			}
			if flags.Changed("skip-optional") {
				c.cfg.SkipOptional = skipOptional
			}
			return c.cfg.validate()
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/indexgraph/config.toml)")
	pf.StringVarP(&registry, "registry", "r", "", "registry to load (crates-io or an index directory)")
	pf.StringVar(&indexPath, "index", "", "index directory, overrides --registry")
	pf.IntVarP(&workers, "workers", "j", 0, "files parsed concurrently (default: number of CPUs)")
	pf.BoolVar(&strict, "strict", false, "abort on the first malformed package file")
	pf.BoolVar(&skipOptional, "skip-optional", false, "ignore optional dependencies")
	pf.BoolVar(&c.noCache, "no-cache", false, "neither read nor write the index cache")
	pf.BoolVar(&c.refresh, "refresh", false, "reload the index even if a cached copy exists")

	root.AddCommand(c.loadCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.depsCommand())
	root.AddCommand(c.dependentsCommand())
	root.AddCommand(c.topCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfigFile() error {
	path, explicit := c.configFile, c.configFile != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			return nil
		}
		path = p
	}
	cfg, unknown, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	for _, k := range unknown {
		c.Logger.Warn("unknown config key", "key", k, "file", path)
	}
	c.cfg = cfg
	return nil
}

// newCache opens the configured cache backend.
func (c *CLI) newCache(ctx context.Context) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch c.cfg.Cache.Backend {
	case backendNone:
		return cache.NewNullCache(), nil
	case backendRedis:
		return cache.NewRedisCache(ctx, c.cfg.Cache.RedisURL, appName+":")
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the file cache directory: the configured one, or the XDG
// standard location (~/.cache/indexgraph/).
func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeNotFound, err, "locate home directory")
	}
	return filepath.Join(home, ".cache", appName), nil
}
