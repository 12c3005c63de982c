package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/indexgraph/pkg/depgraph"
	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/registry"
)

// browseCommand creates the browse command, an interactive version picker.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <name>",
		Short: "Pick a version of a package interactively",
		Long: `List the versions of a package with their resolved dependency and
dependent counts. Selecting a version prints its dependencies.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			model, err := NewVersionListModel(s.graph, args[0])
			if err != nil {
				return err
			}

			p := tea.NewProgram(model,
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(c.status),
			)
			final, err := p.Run()
			if err != nil {
				return errs.Wrap(errs.ErrCodeIO, err, "run version picker")
			}

			m := final.(VersionListModel)
			if m.Selected == nil {
				return nil
			}
			out := cmd.OutOrStdout()
			printSuccess(out, "%s", m.Selected.ID())
			printDependencies(out, s.graph, m.Selected.ID())
			return nil
		},
	}
}

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// VersionListModel - Interactive version selection
// =============================================================================

// versionRow is one line of the version list.
type versionRow struct {
	Record     *registry.VersionRecord
	Deps       int // Resolved direct dependencies
	Dependents int // Versions depending on it directly
}

// VersionListModel is the bubbletea model for interactive version selection.
type VersionListModel struct {
	Name     string
	Rows     []versionRow
	Cursor   int
	Selected *registry.VersionRecord
	Height   int
	Offset   int
}

// NewVersionListModel lists the versions of name, newest first.
func NewVersionListModel(g *depgraph.Graph, name string) (VersionListModel, error) {
	nodes := g.Versions(name)
	if len(nodes) == 0 {
		return VersionListModel{}, errs.New(errs.ErrCodePackageNotFound, "package %s not in graph", name)
	}
	rows := make([]versionRow, len(nodes))
	for i, n := range nodes {
		r := g.Record(n)
		rows[i] = versionRow{
			Record:     r,
			Deps:       len(g.Dependencies(r.ID())),
			Dependents: len(g.Dependents(r.ID())),
		}
	}
	return VersionListModel{
		Name:   name,
		Rows:   rows,
		Height: 15,
	}, nil
}

func (m VersionListModel) Init() tea.Cmd {
	return nil
}

func (m VersionListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = len(m.Rows) - 1
			m.Offset = max(0, m.Cursor-m.Height+1)
		case "enter":
			m.Selected = m.Rows[m.Cursor].Record
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m VersionListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select " + m.Name + " version"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Rows))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		yanked := ""
		if r.Record.Yanked {
			yanked = "yanked"
		}
		rows = append(rows, []string{cursor, r.Record.Version.String(), strconv.Itoa(r.Deps), strconv.Itoa(r.Dependents), yanked})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Version", "Deps", "Dependents", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.Cursor:
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			case m.Rows[idx].Record.Yanked:
				return styleYanked
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}
