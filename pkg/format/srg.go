package format

import (
	"strings"

	"github.com/simonhull/firebird-suite/magpie/pkg/mapping"
)

// SRGLines renders a relation as SRG lines: classes, then fields, then
// methods, each group in source order.
func SRGLines(r mapping.Relation) []string {
	lines := make([]string, 0, r.Len())

	for _, p := range r.Classes() {
		lines = append(lines, "CL: "+p.From.Internal()+" "+p.To.Internal())
	}
	for _, p := range r.Fields() {
		lines = append(lines, "FD: "+joinMember(p.From.Owner, p.From.Name)+" "+joinMember(p.To.Owner, p.To.Name))
	}
	for _, p := range r.Methods() {
		lines = append(lines, "MD: "+joinMember(p.From.Owner, p.From.Name)+" "+p.From.Desc+" "+
			joinMember(p.To.Owner, p.To.Name)+" "+p.To.Desc)
	}

	return lines
}

// ParseSRG decodes SRG lines. PK lines are accepted and ignored. FD lines may
// carry field descriptors (four tokens); the descriptors are discarded so
// fields from either spelling compose with each other.
func ParseSRG(lines []string) (mapping.Relation, error) {
	b := mapping.NewBuilder()

	for i, line := range lines {
		if skippable(line) {
			continue
		}

		fail := func(reason string) error {
			return &ParseError{Line: i + 1, Text: line, Reason: reason}
		}

		kind, rest, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			return mapping.Relation{}, fail("missing record type")
		}
		tokens := strings.Fields(rest)

		switch kind {
		case "PK":
			continue
		case "CL":
			if len(tokens) != 2 {
				return mapping.Relation{}, fail("CL expects 2 names")
			}
			b.Class(mapping.ClassFromInternal(tokens[0]), mapping.ClassFromInternal(tokens[1]))
		case "FD":
			var from, to mapping.Field
			var okFrom, okTo bool
			switch len(tokens) {
			case 2:
				from.Owner, from.Name, okFrom = splitMember(tokens[0])
				to.Owner, to.Name, okTo = splitMember(tokens[1])
			case 4:
				from.Owner, from.Name, okFrom = splitMember(tokens[0])
				to.Owner, to.Name, okTo = splitMember(tokens[2])
			default:
				return mapping.Relation{}, fail("FD expects 2 or 4 tokens")
			}
			if !okFrom || !okTo {
				return mapping.Relation{}, fail("FD member must be owner/name")
			}
			b.Field(from, to)
		case "MD":
			if len(tokens) != 4 {
				return mapping.Relation{}, fail("MD expects 4 tokens")
			}
			var from, to mapping.Method
			var okFrom, okTo bool
			from.Owner, from.Name, okFrom = splitMember(tokens[0])
			to.Owner, to.Name, okTo = splitMember(tokens[2])
			if !okFrom || !okTo {
				return mapping.Relation{}, fail("MD member must be owner/name")
			}
			from.Desc = tokens[1]
			to.Desc = tokens[3]
			b.Method(from, to)
		default:
			return mapping.Relation{}, fail("unknown record type " + kind)
		}
	}

	return b.Build(), nil
}
