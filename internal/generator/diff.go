package generator

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// DiffOptions configures how diffs are generated and displayed.
type DiffOptions struct {
	// ContextLines is the number of unchanged lines shown around changes.
	// Default: 3
	ContextLines int

	// MaxEdits bounds the edit distance the diff will search for. Beyond it
	// the diff is replaced by a one-line summary. Default: 4000
	MaxEdits int

	// Width truncates long lines. Default: terminal width, or 120.
	Width int
}

// DiffGenerator computes unified diffs with Myers' O(ND) algorithm.
// Reuse one generator across files to keep its buffers.
type DiffGenerator struct {
	v     []int
	trace [][]int
}

// NewDiffGenerator creates a diff generator optimized for repeated use.
func NewDiffGenerator() *DiffGenerator {
	return &DiffGenerator{}
}

var (
	headerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hunkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan")).Bold(true)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("22"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("52"))
)

type editOp int

const (
	opKeep editOp = iota
	opInsert
	opDelete
)

type edit struct {
	op      editOp
	oldLine int // 1-based, 0 for inserts
	newLine int // 1-based, 0 for deletes
	text    string
}

type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	edits              []edit
}

// Generate returns a unified diff of old and newer, or "" when they match.
func (dg *DiffGenerator) Generate(oldName, newName string, old, newer []byte, opts *DiffOptions) string {
	o := DiffOptions{ContextLines: 3, MaxEdits: 4000}
	if opts != nil {
		if opts.ContextLines > 0 {
			o.ContextLines = opts.ContextLines
		}
		if opts.MaxEdits > 0 {
			o.MaxEdits = opts.MaxEdits
		}
		o.Width = opts.Width
	}
	if o.Width <= 0 {
		o.Width = terminalWidth()
	}

	if bytes.Equal(old, newer) {
		return ""
	}
	if isBinary(old) || isBinary(newer) {
		return "Binary files differ\n"
	}

	a := splitLines(string(old))
	b := splitLines(string(newer))

	edits, ok := dg.editScript(a, b, o.MaxEdits)
	if !ok {
		return fmt.Sprintf("%s and %s differ in more than %d lines\n", oldName, newName, o.MaxEdits)
	}

	hunks := groupHunks(edits, o.ContextLines)
	if len(hunks) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString(headerStyle.Render("--- "+oldName) + "\n")
	buf.WriteString(headerStyle.Render("+++ "+newName) + "\n")
	for _, h := range hunks {
		writeHunk(&buf, h, o.Width)
	}
	return buf.String()
}

// editScript finds a shortest edit script from a to b. It gives up and
// returns false when more than maxEdits edits are needed.
func (dg *DiffGenerator) editScript(a, b []string, maxEdits int) ([]edit, bool) {
	n, m := len(a), len(b)
	limit := min(n+m, maxEdits)
	offset := limit + 1

	if cap(dg.v) < 2*offset+1 {
		dg.v = make([]int, 2*offset+1)
	}
	v := dg.v[:2*offset+1]
	clear(v)
	dg.trace = dg.trace[:0]

	found := false
	for d := 0; d <= limit && !found; d++ {
		// Only diagonals -d..d are live at step d.
		snapshot := make([]int, 2*d+3)
		copy(snapshot, v[offset-d-1:offset+d+2])
		dg.trace = append(dg.trace, snapshot)

		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				found = true
				break
			}
		}
	}
	if !found {
		return nil, false
	}

	// Walk the trace backwards. trace[d] holds V before step d ran, indexed
	// from diagonal -d-1.
	var rev []edit
	x, y := n, m
	for d := len(dg.trace) - 1; d >= 0; d-- {
		prev := dg.trace[d]
		at := func(k int) int { return prev[k+d+1] }
		k := x - y

		var prevK int
		if k == -d || (k != d && at(k-1) < at(k+1)) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := at(prevK)
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			rev = append(rev, edit{op: opKeep, oldLine: x + 1, newLine: y + 1, text: a[x]})
		}
		if d == 0 {
			break
		}
		if x == prevX {
			y--
			rev = append(rev, edit{op: opInsert, newLine: y + 1, text: b[y]})
		} else {
			x--
			rev = append(rev, edit{op: opDelete, oldLine: x + 1, text: a[x]})
		}
	}

	edits := make([]edit, len(rev))
	for i, e := range rev {
		edits[len(rev)-1-i] = e
	}
	return edits, true
}

// groupHunks splits an edit script into hunks, keeping ctx unchanged lines
// around each change and merging hunks whose context would overlap.
func groupHunks(edits []edit, ctx int) []hunk {
	var hunks []hunk
	start, end := -1, -1

	flush := func() {
		if start < 0 {
			return
		}
		lo := max(start-ctx, 0)
		hi := min(end+ctx, len(edits)-1)
		hunks = append(hunks, newHunk(edits[lo:hi+1]))
		start, end = -1, -1
	}

	for i, e := range edits {
		if e.op == opKeep {
			continue
		}
		if start >= 0 && i-end > 2*ctx {
			flush()
		}
		if start < 0 {
			start = i
		}
		end = i
	}
	flush()

	return hunks
}

func newHunk(edits []edit) hunk {
	h := hunk{edits: edits}
	for _, e := range edits {
		if e.op != opInsert {
			if h.oldStart == 0 {
				h.oldStart = e.oldLine
			}
			h.oldCount++
		}
		if e.op != opDelete {
			if h.newStart == 0 {
				h.newStart = e.newLine
			}
			h.newCount++
		}
	}
	return h
}

func writeHunk(buf *strings.Builder, h hunk, width int) {
	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.oldStart, h.oldCount, h.newStart, h.newCount)
	buf.WriteString(hunkStyle.Render(header) + "\n")

	for _, e := range h.edits {
		text := truncate(strings.ReplaceAll(e.text, "\t", "    "), width-2)
		switch e.op {
		case opInsert:
			buf.WriteString(addedStyle.Render("+"+text) + "\n")
		case opDelete:
			buf.WriteString(removedStyle.Render("-"+text) + "\n")
		default:
			buf.WriteString(" " + text + "\n")
		}
	}
}

// isBinary checks the first 8 KiB for a NUL byte.
func isBinary(data []byte) bool {
	return bytes.IndexByte(data[:min(len(data), 8192)], 0) >= 0
}

// splitLines splits content into lines, dropping the final empty line a
// trailing newline would produce.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func truncate(s string, width int) string {
	if width < 4 || utf8.RuneCountInString(s) <= width {
		return s
	}
	return string([]rune(s)[:width-3]) + "..."
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}
