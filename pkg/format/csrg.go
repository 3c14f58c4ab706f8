package format

import (
	"strings"

	"github.com/simonhull/firebird-suite/magpie/pkg/mapping"
)

// CSRGLines renders a relation as compact SRG lines. Member lines carry only
// the source owner; the target owner is implied by the class lines.
func CSRGLines(r mapping.Relation) []string {
	lines := make([]string, 0, r.Len())

	for _, p := range r.Classes() {
		lines = append(lines, p.From.Internal()+" "+p.To.Internal())
	}
	for _, p := range r.Fields() {
		lines = append(lines, p.From.Owner.Internal()+" "+p.From.Name+" "+p.To.Name)
	}
	for _, p := range r.Methods() {
		lines = append(lines, p.From.Owner.Internal()+" "+p.From.Name+" "+p.From.Desc+" "+p.To.Name)
	}

	return lines
}

// ParseCSRG decodes compact SRG lines. Class lines may appear anywhere in the
// input; target owners and method descriptors are rebuilt from them.
func ParseCSRG(lines []string) (mapping.Relation, error) {
	type member struct {
		tokens []string
	}

	classes := mapping.NewBuilder()
	var members []member

	for i, line := range lines {
		if skippable(line) {
			continue
		}

		tokens := strings.Fields(line)
		switch len(tokens) {
		case 2:
			classes.Class(mapping.ClassFromInternal(tokens[0]), mapping.ClassFromInternal(tokens[1]))
		case 3, 4:
			members = append(members, member{tokens: tokens})
		default:
			return mapping.Relation{}, &ParseError{Line: i + 1, Text: line, Reason: "expected 2, 3 or 4 tokens"}
		}
	}

	classTable := classes.Build()
	b := classes

	for _, m := range members {
		owner := mapping.ClassFromInternal(m.tokens[0])
		target := classTable.MapClass(owner)

		if len(m.tokens) == 3 {
			b.Field(
				mapping.Field{Owner: owner, Name: m.tokens[1]},
				mapping.Field{Owner: target, Name: m.tokens[2]},
			)
			continue
		}

		desc := m.tokens[2]
		b.Method(
			mapping.Method{Owner: owner, Name: m.tokens[1], Desc: desc},
			mapping.Method{Owner: target, Name: m.tokens[3], Desc: mapping.RemapDescriptor(desc, classTable.MapClass)},
		)
	}

	return b.Build(), nil
}
