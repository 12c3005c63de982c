package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/registry"
	"github.com/matzehuels/indexgraph/pkg/render"
)

// validFormats is the set of supported output formats.
var validFormats = map[string]bool{"dot": true, "svg": true, "json": true}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatFlag string
		opts       render.Options
	)

	cmd := &cobra.Command{
		Use:   "render <name@version>",
		Short: "Draw the dependency neighbourhood of a version",
		Long: `Draw the dependency neighbourhood of a version as Graphviz DOT, SVG or
node-link JSON.

The format defaults to the output file's extension, or DOT when writing to
standard output. Build dependencies are drawn dashed and optional ones dotted.`,
		Example: `  indexgraph render serde@1.0.200 --depth 2 -o serde.svg
  indexgraph render libc@0.2.155 --reverse --format dot`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := registry.ParseID(args[0])
			if err != nil {
				return err
			}
			format, err := outputFormat(formatFlag, output)
			if err != nil {
				return err
			}

			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}

			var data []byte
			if format == "json" {
				var buf bytes.Buffer
				if err := render.WriteJSON(&buf, s.graph, id, opts); err != nil {
					return err
				}
				data = buf.Bytes()
			} else {
				dot, err := render.ToDOT(s.graph, id, opts)
				if err != nil {
					return err
				}
				data = []byte(dot)
				if format == "svg" {
					if data, err = render.RenderSVG(dot); err != nil {
						return err
					}
				}
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return errs.Wrap(errs.ErrCodeIO, err, "write %s", output)
			}
			printSuccess(cmd.OutOrStdout(), "Rendered %s", id)
			printFile(cmd.OutOrStdout(), output)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	f.StringVarP(&formatFlag, "format", "f", "", "output format: dot, svg or json")
	f.IntVarP(&opts.Depth, "depth", "d", 1, "hops to draw from the version (-1 for all)")
	f.BoolVar(&opts.Reverse, "reverse", false, "draw dependents instead of dependencies")
	f.BoolVar(&opts.Detailed, "detailed", false, "label edges with the declared requirement")
	return cmd
}

// outputFormat picks the format from the flag, then the output extension.
func outputFormat(flag, output string) (string, error) {
	if flag != "" {
		f := strings.ToLower(flag)
		if !validFormats[f] {
			return "", errs.New(errs.ErrCodeInvalidInput, "unknown format %q (want dot, svg or json)", flag)
		}
		return f, nil
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), "."); validFormats[ext] {
		return ext, nil
	}
	return "dot", nil
}
