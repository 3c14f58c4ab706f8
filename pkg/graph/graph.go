// Package graph expands a list of obfuscated-to-namespace relations into the
// complete set of edges between every pair of namespaces.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/simonhull/firebird-suite/magpie/pkg/mapping"
)

// Obf is the name of the obfuscated namespace every input relation maps from.
const Obf = "obf"

// ErrInvalidNamespace is returned by Validate for names that cannot be used
// to build unambiguous edge names.
var ErrInvalidNamespace = errors.New("invalid namespace name")

// NamedRelation maps the obfuscated namespace to the namespace called Name.
type NamedRelation struct {
	Name     string
	Relation mapping.Relation
}

// DerivedRelation is one edge of the output graph. Edge is "<From>2<To>".
type DerivedRelation struct {
	Edge     string
	From     string
	To       string
	Relation mapping.Relation
}

// EdgeName returns the edge name between two namespaces.
func EdgeName(from, to string) string {
	return from + "2" + to
}

// IsObfEdge reports whether the edge maps from the obfuscated namespace.
func (d DerivedRelation) IsObfEdge() bool {
	return d.From == Obf
}

// Validate checks that namespace names are usable as edge names: non-empty,
// unique, not "obf", and free of the '2' separator, path separators and
// whitespace.
func Validate(inputs []NamedRelation) error {
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		name := in.Name
		switch {
		case name == "":
			return fmt.Errorf("%w: empty name", ErrInvalidNamespace)
		case name == Obf:
			return fmt.Errorf("%w: %q is reserved", ErrInvalidNamespace, name)
		case strings.ContainsAny(name, "2/\\ \t"):
			return fmt.Errorf("%w: %q must not contain '2', slashes or spaces", ErrInvalidNamespace, name)
		case seen[name]:
			return fmt.Errorf("%w: %q supplied twice", ErrInvalidNamespace, name)
		}
		seen[name] = true
	}
	return nil
}

// Expand derives every edge from the inputs. For each input, in order, it
// emits obf2<name> and <name>2obf, followed by <name>2<other> for every
// other input. Zero inputs give no edges; one input gives two.
//
// Pairwise edges are Invert(a).Chain(b), so identifiers that b does not
// rename are dropped from <a>2<b>.
func Expand(inputs []NamedRelation) []DerivedRelation {
	if len(inputs) == 0 {
		return nil
	}

	inverted := make([]mapping.Relation, len(inputs))
	for i, in := range inputs {
		inverted[i] = in.Relation.Invert()
	}

	derived := make([]DerivedRelation, 0, len(inputs)*(len(inputs)+1))
	for i, a := range inputs {
		derived = append(derived,
			DerivedRelation{Edge: EdgeName(Obf, a.Name), From: Obf, To: a.Name, Relation: a.Relation},
			DerivedRelation{Edge: EdgeName(a.Name, Obf), From: a.Name, To: Obf, Relation: inverted[i]},
		)

		for j, b := range inputs {
			if i == j {
				continue
			}
			derived = append(derived, DerivedRelation{
				Edge:     EdgeName(a.Name, b.Name),
				From:     a.Name,
				To:       b.Name,
				Relation: inverted[i].Chain(b.Relation),
			})
		}
	}

	return derived
}

// ObfEdges returns the obf2<x> edges in the order they were derived, which is
// the order the namespaces were supplied.
func ObfEdges(derived []DerivedRelation) []DerivedRelation {
	edges := make([]DerivedRelation, 0, len(derived))
	for _, d := range derived {
		if d.IsObfEdge() {
			edges = append(edges, d)
		}
	}
	return edges
}
