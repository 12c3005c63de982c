package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/indexgraph/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the index cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove cached index snapshots",
		Long: `Remove cached index snapshots.

With the file backend every entry in the cache directory is removed. With the
redis backend only the snapshot of the configured registry is deleted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if c.cfg.Cache.Backend == backendRedis {
				return c.clearIndexSnapshot(cmd)
			}

			dir, err := c.cacheDir()
			if err != nil {
				return err
			}
			if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
				printInfo(out, "Cache is empty")
				return nil
			}

			fc, err := cache.NewFileCache(dir)
			if err != nil {
				return err
			}
			count, err := fc.Clear()
			if err != nil {
				return err
			}

			printSuccess(out, "Cleared %d cached entries", count)
			printDetail(out, "Directory: %s", dir)
			return nil
		},
	}
}

// clearIndexSnapshot deletes the cached snapshot of the configured index.
func (c *CLI) clearIndexSnapshot(cmd *cobra.Command) error {
	root, err := c.indexRoot()
	if err != nil {
		return err
	}
	backend, err := c.newCache(cmd.Context())
	if err != nil {
		return err
	}
	defer backend.Close()

	ic, err := cache.NewIndexCache(backend, root, c.cfg.Cache.TTL.Duration)
	if err != nil {
		return err
	}
	if err := ic.Invalidate(cmd.Context()); err != nil {
		return err
	}
	printSuccess(cmd.OutOrStdout(), "Removed cached index for %s", root)
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Cache.Backend == backendRedis {
				printInfo(cmd.OutOrStdout(), "The redis backend has no cache directory")
				return nil
			}
			dir, err := c.cacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}
