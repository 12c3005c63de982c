package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/indexgraph/pkg/query"
)

// loadCommand creates the load command, which builds the index and graph
// and reports what was found.
func (c *CLI) loadCommand() *cobra.Command {
	var showUnresolved bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the index and build the dependency graph",
		Long: `Load the registry index, build the dependency graph and print a summary.

Malformed package files and unreadable entries are skipped and listed unless
--strict is set. Integrity violations and dependency cycles always abort.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			printSuccess(out, "Loaded index")
			printKeyValue(out, "Root", s.root)
			printStats(out, s.idx.Len(), s.idx.RecordCount(), s.graph.EdgeCount(), s.cached)

			printDetail(out, "%d roots, %d leaves", len(query.Roots(s.graph)), len(query.Leaves(s.graph)))

			if r := s.indexReport; r != nil {
				for _, pe := range r.ParseErrors {
					printWarning(out, "skipped %s", pe.Error())
				}
				for _, sk := range r.Skipped {
					printWarning(out, "unreadable %s: %v", sk.Path, sk.Err)
				}
			}

			n := len(s.report.Unresolved)
			if n > 0 {
				printInfo(out, "%d unresolved dependencies", n)
				if showUnresolved {
					for _, u := range s.report.Unresolved {
						printDetail(out, "%s", u)
					}
				}
			}
			if s.report.Stats.Filtered > 0 {
				printDetail(out, "%d dependencies excluded by kind or optionality", s.report.Stats.Filtered)
			}

			fmt.Fprintln(out)
			printNextStep(out, "Most depended-on packages", appName+" top")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showUnresolved, "unresolved", "u", false, "list every unresolved dependency")
	return cmd
}
