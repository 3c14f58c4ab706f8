package format

import (
	"slices"
	"strings"

	"github.com/simonhull/firebird-suite/magpie/pkg/mapping"
)

// TinyObfNamespace heads the first column of a merged tiny table.
const TinyObfNamespace = "obf"

// Tiny merges several obf-keyed relations into one tiny v1 table with a
// column per namespace. Columns follow the order relations were added.
type Tiny struct {
	namespaces []string
	classes    map[mapping.ClassName][]string
	fields     map[mapping.Field][]string
	methods    map[mapping.Method][]string
}

// NewTiny returns an empty merged table.
func NewTiny() *Tiny {
	return &Tiny{
		classes: make(map[mapping.ClassName][]string),
		fields:  make(map[mapping.Field][]string),
		methods: make(map[mapping.Method][]string),
	}
}

// Add appends a namespace column filled from a relation keyed by obfuscated
// identifiers.
func (t *Tiny) Add(namespace string, r mapping.Relation) {
	col := len(t.namespaces)
	t.namespaces = append(t.namespaces, namespace)

	for _, p := range r.Classes() {
		t.classes[p.From] = setColumn(t.classes[p.From], col, p.To.Internal())
	}
	for _, p := range r.Fields() {
		t.fields[p.From] = setColumn(t.fields[p.From], col, p.To.Name)
	}
	for _, p := range r.Methods() {
		t.methods[p.From] = setColumn(t.methods[p.From], col, p.To.Name)
	}
}

// Namespaces returns the column names after the obf column.
func (t *Tiny) Namespaces() []string {
	return slices.Clone(t.namespaces)
}

// Lines renders the header followed by every row, rows sorted as text.
// Namespaces without a name for a row leave its column blank.
func (t *Tiny) Lines() []string {
	width := len(t.namespaces)
	rows := make([]string, 0, len(t.classes)+len(t.fields)+len(t.methods))

	for obf, names := range t.classes {
		rows = append(rows, tinyRow([]string{"CLASS", obf.Internal()}, names, width))
	}
	for obf, names := range t.fields {
		rows = append(rows, tinyRow([]string{"FIELD", obf.Owner.Internal(), "", obf.Name}, names, width))
	}
	for obf, names := range t.methods {
		rows = append(rows, tinyRow([]string{"METHOD", obf.Owner.Internal(), obf.Desc, obf.Name}, names, width))
	}
	slices.Sort(rows)

	header := append([]string{"v1", TinyObfNamespace}, t.namespaces...)
	return append([]string{strings.Join(header, "\t")}, rows...)
}

func setColumn(row []string, col int, value string) []string {
	for len(row) <= col {
		row = append(row, "")
	}
	row[col] = value
	return row
}

func tinyRow(prefix, names []string, width int) string {
	cols := make([]string, 0, len(prefix)+width)
	cols = append(cols, prefix...)
	cols = append(cols, names...)
	for i := len(names); i < width; i++ {
		cols = append(cols, "")
	}
	return strings.Join(cols, "\t")
}
