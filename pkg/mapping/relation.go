package mapping

import (
	"maps"
	"slices"
)

// ClassPair is one class rename.
type ClassPair struct {
	From ClassName
	To   ClassName
}

// FieldPair is one field rename.
type FieldPair struct {
	From Field
	To   Field
}

// MethodPair is one method rename.
type MethodPair struct {
	From Method
	To   Method
}

// Relation is an immutable renaming table between two implicit namespaces.
// The zero value is an empty relation.
type Relation struct {
	classes map[ClassName]ClassName
	fields  map[Field]Field
	methods map[Method]Method
}

// Class returns the target of a class, if the relation renames it.
func (r Relation) Class(from ClassName) (ClassName, bool) {
	to, ok := r.classes[from]
	return to, ok
}

// Field returns the target of a field, if the relation renames it.
func (r Relation) Field(from Field) (Field, bool) {
	to, ok := r.fields[from]
	return to, ok
}

// Method returns the target of a method, if the relation renames it.
func (r Relation) Method(from Method) (Method, bool) {
	to, ok := r.methods[from]
	return to, ok
}

// MapClass returns the target of a class, or the class itself when the
// relation has no entry for it.
func (r Relation) MapClass(from ClassName) ClassName {
	if to, ok := r.classes[from]; ok {
		return to
	}
	return from
}

// Classes returns every class pair sorted by source name.
func (r Relation) Classes() []ClassPair {
	pairs := make([]ClassPair, 0, len(r.classes))
	for _, from := range slices.Sorted(maps.Keys(r.classes)) {
		pairs = append(pairs, ClassPair{From: from, To: r.classes[from]})
	}
	return pairs
}

// Fields returns every field pair sorted by source identifier.
func (r Relation) Fields() []FieldPair {
	pairs := make([]FieldPair, 0, len(r.fields))
	for from, to := range r.fields {
		pairs = append(pairs, FieldPair{From: from, To: to})
	}
	slices.SortFunc(pairs, func(a, b FieldPair) int { return compareField(a.From, b.From) })
	return pairs
}

// Methods returns every method pair sorted by source identifier.
func (r Relation) Methods() []MethodPair {
	pairs := make([]MethodPair, 0, len(r.methods))
	for from, to := range r.methods {
		pairs = append(pairs, MethodPair{From: from, To: to})
	}
	slices.SortFunc(pairs, func(a, b MethodPair) int { return compareMethod(a.From, b.From) })
	return pairs
}

// Counts returns the number of class, field and method pairs.
func (r Relation) Counts() (classes, fields, methods int) {
	return len(r.classes), len(r.fields), len(r.methods)
}

// Len returns the total number of pairs across all kinds.
func (r Relation) Len() int {
	return len(r.classes) + len(r.fields) + len(r.methods)
}

// Equal reports whether both relations hold exactly the same pairs.
func (r Relation) Equal(other Relation) bool {
	return maps.Equal(r.classes, other.classes) &&
		maps.Equal(r.fields, other.fields) &&
		maps.Equal(r.methods, other.methods)
}

// Invert swaps source and target for every pair. If several sources share a
// target, the one that sorts last wins.
func (r Relation) Invert() Relation {
	b := NewBuilder()
	for _, p := range r.Classes() {
		b.Class(p.To, p.From)
	}
	for _, p := range r.Fields() {
		b.Field(p.To, p.From)
	}
	for _, p := range r.Methods() {
		b.Method(p.To, p.From)
	}
	return b.Build()
}

// Chain composes r with next: every source maps to next's target for r's
// target. Identifiers whose target next does not rename are dropped.
func (r Relation) Chain(next Relation) Relation {
	b := NewBuilder()
	for from, mid := range r.classes {
		if to, ok := next.classes[mid]; ok {
			b.Class(from, to)
		}
	}
	for from, mid := range r.fields {
		if to, ok := next.fields[mid]; ok {
			b.Field(from, to)
		}
	}
	for from, mid := range r.methods {
		if to, ok := next.methods[mid]; ok {
			b.Method(from, to)
		}
	}
	return b.Build()
}

// AndThen layers next on top of r, the way acquired tables are stacked: a
// class table followed by a member table written against the renamed
// classes, or a base table followed by a partial rename of it.
//
// Unlike Chain, nothing is dropped. An identifier missing from either side
// passes through unchanged, and members passing through have their owner
// and descriptor rewritten by the other side's class table.
func (r Relation) AndThen(next Relation) Relation {
	b := NewBuilder()
	back := r.Invert()

	// Everything r renames, carried through next.
	for _, p := range r.Classes() {
		b.Class(p.From, next.MapClass(p.To))
	}
	for _, p := range r.Fields() {
		to, ok := next.fields[p.To]
		if !ok {
			to = remapField(p.To, next.MapClass)
		}
		b.Field(p.From, to)
	}
	for _, p := range r.Methods() {
		to, ok := next.methods[p.To]
		if !ok {
			to = remapMethod(p.To, next.MapClass)
		}
		b.Method(p.From, to)
	}

	// Entries of next that r never reaches, traced back to r's sources.
	for _, p := range next.Classes() {
		if _, reached := back.classes[p.From]; reached {
			continue
		}
		if _, taken := b.classes[p.From]; !taken {
			b.Class(p.From, p.To)
		}
	}
	for _, p := range next.Fields() {
		if _, reached := back.fields[p.From]; reached {
			continue
		}
		from := remapField(p.From, back.MapClass)
		if _, taken := b.fields[from]; !taken {
			b.Field(from, p.To)
		}
	}
	for _, p := range next.Methods() {
		if _, reached := back.methods[p.From]; reached {
			continue
		}
		from := remapMethod(p.From, back.MapClass)
		if _, taken := b.methods[from]; !taken {
			b.Method(from, p.To)
		}
	}

	return b.Build()
}

func remapField(f Field, fn func(ClassName) ClassName) Field {
	return Field{Owner: fn(f.Owner), Name: f.Name}
}

func remapMethod(m Method, fn func(ClassName) ClassName) Method {
	return Method{Owner: fn(m.Owner), Name: m.Name, Desc: RemapDescriptor(m.Desc, fn)}
}

// Builder accumulates pairs for a Relation. A later pair for the same source
// replaces the earlier one.
type Builder struct {
	classes map[ClassName]ClassName
	fields  map[Field]Field
	methods map[Method]Method
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		classes: make(map[ClassName]ClassName),
		fields:  make(map[Field]Field),
		methods: make(map[Method]Method),
	}
}

// Class records a class rename.
func (b *Builder) Class(from, to ClassName) *Builder {
	b.classes[from] = to
	return b
}

// Field records a field rename.
func (b *Builder) Field(from, to Field) *Builder {
	b.fields[from] = to
	return b
}

// Method records a method rename.
func (b *Builder) Method(from, to Method) *Builder {
	b.methods[from] = to
	return b
}

// Build returns a snapshot of the recorded pairs. The builder stays usable;
// later changes do not affect relations already built.
func (b *Builder) Build() Relation {
	return Relation{
		classes: maps.Clone(b.classes),
		fields:  maps.Clone(b.fields),
		methods: maps.Clone(b.methods),
	}
}
