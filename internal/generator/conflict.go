package generator

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// ConflictResolution is what to do with a file that already exists.
type ConflictResolution int

const (
	Keep ConflictResolution = iota
	Overwrite
	ShowDiff
	Cancel
)

// Diffs up to this many lines are printed inline; longer ones open a
// scrollable viewer.
const inlineDiffLines = 20

var (
	warningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("white")).Bold(true)
	borderStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type programRunner func(m tea.Model, opts ...tea.ProgramOption) (tea.Model, error)

func runProgram(m tea.Model, opts ...tea.ProgramOption) (tea.Model, error) {
	return tea.NewProgram(m, opts...).Run()
}

// Resolver asks on the terminal what to do with an existing file.
type Resolver struct {
	out     io.Writer
	diffGen *DiffGenerator
	run     programRunner
}

// NewResolver creates a resolver that prints inline diffs to out. A nil out
// means stdout.
func NewResolver(out io.Writer) *Resolver {
	if out == nil {
		out = os.Stdout
	}
	return &Resolver{out: out, diffGen: NewDiffGenerator(), run: runProgram}
}

// Resolve shows the conflict menu for path. Choosing "show diff" displays
// the difference between existing and newer and returns to the menu, so the
// result is always Keep, Overwrite or Cancel.
func (r *Resolver) Resolve(path string, existing, newer []byte) (ConflictResolution, error) {
	info, err := os.Stat(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Cancel, fmt.Errorf("stat %s: %w", path, err)
	}

	for {
		final, err := r.run(newConflictMenuModel(path, info))
		if err != nil {
			return Cancel, fmt.Errorf("show menu: %w", err)
		}

		m, ok := final.(conflictMenuModel)
		if !ok || m.selected == nil {
			return Cancel, nil
		}
		if *m.selected != ShowDiff {
			return *m.selected, nil
		}

		if err := r.showDiff(path, existing, newer); err != nil {
			return Cancel, err
		}
	}
}

func (r *Resolver) showDiff(path string, existing, newer []byte) error {
	diff := r.diffGen.Generate(path, path+" (new)", existing, newer, nil)
	if diff == "" {
		fmt.Fprintln(r.out, mutedStyle.Render("    No differences"))
		return nil
	}

	if strings.Count(diff, "\n") <= inlineDiffLines {
		fmt.Fprint(r.out, diff)
		return nil
	}

	if _, err := r.run(newDiffViewerModel(path, diff), tea.WithAltScreen()); err != nil {
		return fmt.Errorf("show diff: %w", err)
	}
	return nil
}

// conflictMenuModel is the menu shown for one existing file.
type conflictMenuModel struct {
	path     string
	fileInfo os.FileInfo
	choices  []string
	cursor   int
	selected *ConflictResolution
}

func newConflictMenuModel(path string, fileInfo os.FileInfo) conflictMenuModel {
	return conflictMenuModel{
		path:     path,
		fileInfo: fileInfo,
		choices: []string{
			"Show diff and decide",
			"Keep existing file",
			"Overwrite",
			"Cancel",
		},
	}
}

func (m conflictMenuModel) Init() tea.Cmd {
	return nil
}

func (m conflictMenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter":
		choice := choiceResolution(m.cursor)
		m.selected = &choice
		return m, tea.Quit
	}
	return m, nil
}

func (m conflictMenuModel) View() string {
	var b strings.Builder

	b.WriteString(warningStyle.Render("⚠️  File already exists: ") + titleStyle.Render(m.path) + "\n")
	if m.fileInfo != nil {
		b.WriteString(mutedStyle.Render("    Last modified: ") + humanize.Time(m.fileInfo.ModTime()) + "\n")
		b.WriteString(mutedStyle.Render("    Size: ") + humanize.Bytes(uint64(m.fileInfo.Size())) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("    [↑/↓] Navigate    [Enter] Select    [q] Cancel") + "\n\n")

	for i, choice := range m.choices {
		if m.cursor == i {
			b.WriteString("    " + selectedStyle.Render("> "+choice) + "\n")
		} else {
			b.WriteString("      " + choice + "\n")
		}
	}
	return b.String()
}

func choiceResolution(cursor int) ConflictResolution {
	switch cursor {
	case 0:
		return ShowDiff
	case 1:
		return Keep
	case 2:
		return Overwrite
	default:
		return Cancel
	}
}

// diffViewerModel pages through a diff too long to print inline.
type diffViewerModel struct {
	path     string
	diff     string
	viewport viewport.Model
	ready    bool
}

func newDiffViewerModel(path, diff string) diffViewerModel {
	return diffViewerModel{path: path, diff: diff}
}

func (m diffViewerModel) Init() tea.Cmd {
	return nil
}

func (m diffViewerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		// Title line plus footer line.
		const chrome = 2
		width := max(msg.Width, 1)
		height := max(msg.Height-chrome, 1)

		if !m.ready {
			m.viewport = viewport.New(width, height)
			m.viewport.SetContent(m.diff)
			m.ready = true
		} else {
			m.viewport.Width = width
			m.viewport.Height = height
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m diffViewerModel) View() string {
	if !m.ready {
		return "Loading diff..."
	}

	title := borderStyle.Render("── Diff: ") + titleStyle.Render(m.path)
	footer := mutedStyle.Render(fmt.Sprintf("[↑/↓/PgUp/PgDn] Scroll    [q] Back to menu    %3.f%%", m.viewport.ScrollPercent()*100))
	return title + "\n" + m.viewport.View() + "\n" + footer
}
