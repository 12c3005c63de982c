package cli

import (
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/indexgraph/internal/testindex"
	"github.com/matzehuels/indexgraph/pkg/depgraph"
	errs "github.com/matzehuels/indexgraph/pkg/errors"
	"github.com/matzehuels/indexgraph/pkg/index"
)

func browseGraph(t *testing.T) *depgraph.Graph {
	t.Helper()
	var serde []testindex.Version
	for _, v := range []string{"1.0.0", "1.0.1", "1.0.2", "1.0.3", "1.0.4", "1.0.5", "1.0.6", "1.0.7"} {
		serde = append(serde, testindex.V("serde", v))
	}
	idx, err := index.New(
		testindex.Package(t, serde...),
		testindex.Package(t, testindex.V("app", "1.0.0", testindex.D("serde", "^1"))),
	)
	if err != nil {
		t.Fatal(err)
	}
	g, _, err := depgraph.Build(idx, depgraph.Options{Logger: log.New(io.Discard)})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m VersionListModel, keys ...string) (VersionListModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(VersionListModel)
	}
	return m, cmd
}

func TestVersionListModel(t *testing.T) {
	m, err := NewVersionListModel(browseGraph(t), "serde")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Rows) != 8 {
		t.Fatalf("rows = %d, want 8", len(m.Rows))
	}
	if got := m.Rows[0].Record.Version.String(); got != "1.0.7" {
		t.Errorf("first row = %s, want newest 1.0.7", got)
	}
	if m.Rows[0].Dependents != 1 || m.Rows[1].Dependents != 0 {
		t.Errorf("dependents = %d, %d; want 1, 0", m.Rows[0].Dependents, m.Rows[1].Dependents)
	}

	m, _ = press(t, m, "up")
	if m.Cursor != 0 {
		t.Errorf("cursor moved above the first row: %d", m.Cursor)
	}

	m, cmd := press(t, m, "down", "j", "enter")
	if m.Cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.Cursor)
	}
	if m.Selected == nil || m.Selected.Version.String() != "1.0.5" {
		t.Errorf("selected = %v, want serde@1.0.5", m.Selected)
	}
	if cmd == nil {
		t.Error("enter did not quit")
	}
}

func TestVersionListModelScroll(t *testing.T) {
	m, err := NewVersionListModel(browseGraph(t), "serde")
	if err != nil {
		t.Fatal(err)
	}
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 9})
	m = next.(VersionListModel)
	if m.Height != 5 {
		t.Fatalf("height = %d, want 5", m.Height)
	}

	m, _ = press(t, m, "down", "down", "down", "down", "down", "down")
	if m.Cursor != 6 || m.Offset != 2 {
		t.Errorf("cursor, offset = %d, %d; want 6, 2", m.Cursor, m.Offset)
	}
	m, _ = press(t, m, "G")
	if m.Cursor != 7 || m.Offset != 3 {
		t.Errorf("after G cursor, offset = %d, %d; want 7, 3", m.Cursor, m.Offset)
	}
	m, _ = press(t, m, "g")
	if m.Cursor != 0 || m.Offset != 0 {
		t.Errorf("after g cursor, offset = %d, %d; want 0, 0", m.Cursor, m.Offset)
	}

	view := m.View()
	if !strings.Contains(view, "1.0.7") || strings.Contains(view, "1.0.0") {
		t.Errorf("view shows the wrong window:\n%s", view)
	}
	if !strings.Contains(view, "[1/8]") {
		t.Errorf("view missing position:\n%s", view)
	}
}

func TestVersionListModelQuit(t *testing.T) {
	m, err := NewVersionListModel(browseGraph(t), "serde")
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"q", "esc"} {
		got, cmd := press(t, m, k)
		if cmd == nil {
			t.Errorf("%s did not quit", k)
		}
		if got.Selected != nil {
			t.Errorf("%s selected %v", k, got.Selected)
		}
	}
}

func TestVersionListModelUnknownPackage(t *testing.T) {
	_, err := NewVersionListModel(browseGraph(t), "nope")
	if !errs.Is(err, errs.ErrCodePackageNotFound) {
		t.Errorf("err = %v, want PACKAGE_NOT_FOUND", err)
	}
}
