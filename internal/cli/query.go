package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/indexgraph/pkg/depgraph"
	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/query"
	"github.com/matzehuels/indexgraph/pkg/registry"
)

// resolveCommand creates the resolve command.
func (c *CLI) resolveCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "resolve <name> <requirement>",
		Short: "Resolve a version requirement against the index",
		Long: `Resolve a version requirement against the index.

Prints the newest version of the package that satisfies the requirement, the
same choice the graph builder makes for a dependency. Yanked versions are
eligible. With --all every satisfying version is listed, newest first.`,
		Example: `  indexgraph resolve serde '^1.0'
  indexgraph resolve rand '>=0.7, <0.9' --all`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			req, err := registry.ParseRequirement(args[1])
			if err != nil {
				return err
			}

			s, err := c.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			pkg := s.idx.Package(name)
			if pkg == nil {
				return errs.New(errs.ErrCodePackageNotFound, "package %s not in index", name)
			}

			if all {
				n := 0
				for _, r := range pkg.Versions {
					if req.Matches(r.Version) {
						fmt.Fprintln(out, versionLine(r))
						n++
					}
				}
				if n == 0 {
					return errs.New(errs.ErrCodeVersionNotFound, "no version of %s satisfies %s", name, req)
				}
				return nil
			}

			r := depgraph.Resolve(registry.Dependency{Name: name, Req: req}, s.idx)
			if r == nil {
				return errs.New(errs.ErrCodeVersionNotFound, "no version of %s satisfies %s", name, req)
			}
			fmt.Fprintln(out, versionLine(r))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every satisfying version")
	return cmd
}

// depsCommand creates the deps command.
func (c *CLI) depsCommand() *cobra.Command {
	var transitive bool

	cmd := &cobra.Command{
		Use:   "deps <name@version>",
		Short: "Show what a version depends on",
		Long: `Show the resolved dependencies of one package version.

By default the direct dependencies are listed with the requirement they were
resolved from. With --transitive every version reachable from it is printed.`,
		Example: `  indexgraph deps tokio@1.38.0
  indexgraph deps tokio@1.38.0 --transitive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := registry.ParseID(args[0])
			if err != nil {
				return err
			}
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if transitive {
				recs, err := query.Closure(s.graph, id)
				if err != nil {
					return err
				}
				for _, r := range recs {
					fmt.Fprintln(out, r.ID())
				}
				return nil
			}

			if _, ok := s.graph.Node(id); !ok {
				return errs.New(errs.ErrCodeVersionNotFound, "version %s not in graph", id)
			}
			printDependencies(out, s.graph, id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&transitive, "transitive", "t", false, "list the transitive closure")
	return cmd
}

// printDependencies prints the direct resolved dependencies of id as a table.
func printDependencies(w io.Writer, g *depgraph.Graph, id registry.ID) {
	edges := g.Dependencies(id)
	if len(edges) == 0 {
		printInfo(w, "%s has no resolved dependencies", id)
		return
	}
	rows := make([][]string, 0, len(edges))
	for _, e := range edges {
		d := e.Dependency()
		name := d.PackageName()
		if d.Package != "" {
			name += " (as " + d.Name + ")"
		}
		rows = append(rows, []string{name, d.Req.String(), e.To.Version.String(), string(d.Kind)})
	}
	printTable(w, []string{"Dependency", "Requirement", "Resolved", "Kind"}, rows)
}

// dependentsCommand creates the dependents command.
func (c *CLI) dependentsCommand() *cobra.Command {
	var direct bool

	cmd := &cobra.Command{
		Use:   "dependents <name>",
		Short: "Show which versions pull in a package",
		Long: `Show every published version that would pull in some version of a package.

By default dependents are transitive. With --direct only versions declaring a
dependency that resolves to the package are listed.`,
		Example: `  indexgraph dependents libc
  indexgraph dependents openssl-sys --direct`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var ids []registry.ID
			if direct {
				ids, err = directDependents(s.graph, name)
			} else {
				var recs []*registry.VersionRecord
				recs, err = query.Dependents(s.graph, name)
				for _, r := range recs {
					ids = append(ids, r.ID())
				}
			}
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&direct, "direct", "d", false, "only list direct dependents")
	return cmd
}

// directDependents returns the versions with an edge into any version of
// name, sorted and without duplicates.
func directDependents(g *depgraph.Graph, name string) ([]registry.ID, error) {
	nodes := g.Versions(name)
	if len(nodes) == 0 {
		return nil, errs.New(errs.ErrCodePackageNotFound, "package %s not in graph", name)
	}
	seen := make(map[registry.ID]bool)
	var recs []*registry.VersionRecord
	for _, n := range nodes {
		for _, e := range g.Dependents(g.Record(n).ID()) {
			if id := e.From.ID(); !seen[id] {
				seen[id] = true
				recs = append(recs, e.From)
			}
		}
	}
	slices.SortFunc(recs, query.Compare)
	ids := make([]registry.ID, len(recs))
	for i, r := range recs {
		ids[i] = r.ID()
	}
	return ids, nil
}

// topCommand creates the top command.
func (c *CLI) topCommand() *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "top",
		Short: "Rank packages by number of direct dependents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			ranked := query.TopDependedOn(s.graph, n)
			if len(ranked) == 0 {
				printInfo(cmd.OutOrStdout(), "No package has dependents")
				return nil
			}
			rows := make([][]string, len(ranked))
			for i, r := range ranked {
				rows[i] = []string{strconv.Itoa(i + 1), r.Name, strconv.Itoa(r.Dependents)}
			}
			printTable(cmd.OutOrStdout(), []string{"#", "Package", "Dependents"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&n, "limit", "n", 20, "number of packages to show (0 for all)")
	return cmd
}

// versionLine formats a record as "name@version", marking yanked versions.
func versionLine(r *registry.VersionRecord) string {
	if r.Yanked {
		return r.ID().String() + " (yanked)"
	}
	return r.ID().String()
}
