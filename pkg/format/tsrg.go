package format

import (
	"strings"

	"github.com/simonhull/firebird-suite/magpie/pkg/mapping"
)

// tsrgClass collects the members grouped under one class header.
type tsrgClass struct {
	obf     string
	mapped  string
	members []string
}

// TSRGFromSRG re-indents SRG lines into TSRG. Classes appear in the order
// they are first seen and members keep their relative order, so sorted SRG
// input gives stable TSRG output. A member whose owner has no CL line gets a
// header built from the member line itself.
func TSRGFromSRG(srgLines []string) ([]string, error) {
	var order []*tsrgClass
	byObf := make(map[string]*tsrgClass)

	classFor := func(obf, mapped string) *tsrgClass {
		if c, ok := byObf[obf]; ok {
			return c
		}
		c := &tsrgClass{obf: obf, mapped: mapped}
		byObf[obf] = c
		order = append(order, c)
		return c
	}

	for i, line := range srgLines {
		if skippable(line) {
			continue
		}

		fail := func(reason string) error {
			return &ParseError{Line: i + 1, Text: line, Reason: reason}
		}

		kind, rest, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			return nil, fail("missing record type")
		}
		tokens := strings.Fields(rest)

		switch kind {
		case "PK":
			continue
		case "CL":
			if len(tokens) != 2 {
				return nil, fail("CL expects 2 names")
			}
			c := classFor(tokens[0], tokens[1])
			c.mapped = tokens[1]
		case "FD":
			if len(tokens) != 2 && len(tokens) != 4 {
				return nil, fail("FD expects 2 or 4 tokens")
			}
			target := tokens[len(tokens)/2]
			obfOwner, obfName, okFrom := cutMember(tokens[0])
			mappedOwner, mappedName, okTo := cutMember(target)
			if !okFrom || !okTo {
				return nil, fail("FD member must be owner/name")
			}
			c := classFor(obfOwner, mappedOwner)
			c.members = append(c.members, "\t"+obfName+" "+mappedName)
		case "MD":
			if len(tokens) != 4 {
				return nil, fail("MD expects 4 tokens")
			}
			obfOwner, obfName, okFrom := cutMember(tokens[0])
			mappedOwner, mappedName, okTo := cutMember(tokens[2])
			if !okFrom || !okTo {
				return nil, fail("MD member must be owner/name")
			}
			c := classFor(obfOwner, mappedOwner)
			c.members = append(c.members, "\t"+obfName+" "+tokens[1]+" "+mappedName)
		default:
			return nil, fail("unknown record type " + kind)
		}
	}

	lines := make([]string, 0, len(srgLines)+len(order))
	for _, c := range order {
		lines = append(lines, c.obf+" "+c.mapped)
		lines = append(lines, c.members...)
	}
	return lines, nil
}

// ParseTSRG decodes TSRG (v1) lines. Package lines (ending in '/') are
// ignored. Method target descriptors are rebuilt from the class table.
func ParseTSRG(lines []string) (mapping.Relation, error) {
	type member struct {
		owner  mapping.ClassName
		target mapping.ClassName
		tokens []string
	}

	classes := mapping.NewBuilder()
	var members []member
	var current *member

	for i, line := range lines {
		if skippable(line) {
			continue
		}

		tokens := strings.Fields(line)
		indented := strings.HasPrefix(line, "\t") || strings.HasPrefix(line, " ")

		if !indented {
			if len(tokens) != 2 {
				return mapping.Relation{}, &ParseError{Line: i + 1, Text: line, Reason: "class line expects 2 names"}
			}
			if strings.HasSuffix(tokens[0], "/") {
				current = nil
				continue
			}
			owner := mapping.ClassFromInternal(tokens[0])
			target := mapping.ClassFromInternal(tokens[1])
			classes.Class(owner, target)
			current = &member{owner: owner, target: target}
			continue
		}

		if current == nil {
			return mapping.Relation{}, &ParseError{Line: i + 1, Text: line, Reason: "member line before any class"}
		}
		if len(tokens) != 2 && len(tokens) != 3 {
			return mapping.Relation{}, &ParseError{Line: i + 1, Text: line, Reason: "member line expects 2 or 3 tokens"}
		}
		members = append(members, member{owner: current.owner, target: current.target, tokens: tokens})
	}

	classTable := classes.Build()
	b := classes

	for _, m := range members {
		if len(m.tokens) == 2 {
			b.Field(
				mapping.Field{Owner: m.owner, Name: m.tokens[0]},
				mapping.Field{Owner: m.target, Name: m.tokens[1]},
			)
			continue
		}

		desc := m.tokens[1]
		b.Method(
			mapping.Method{Owner: m.owner, Name: m.tokens[0], Desc: desc},
			mapping.Method{Owner: m.target, Name: m.tokens[2], Desc: mapping.RemapDescriptor(desc, classTable.MapClass)},
		)
	}

	return b.Build(), nil
}

// cutMember splits "owner/name" at the last slash, keeping internal form.
func cutMember(s string) (string, string, bool) {
	i := strings.LastIndexByte(s, '/')
	if i <= 0 || i == len(s)-1 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}
