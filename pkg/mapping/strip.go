package mapping

// Strip removes renames that do not rename anything.
//
// Classes are dropped when source and target names are equal. Fields and
// methods are dropped when their simple names are equal; owner and
// descriptor are ignored for the check but kept on the entries that remain.
// Member renames are what the emitted tables care about, since owner renames
// are already recorded on the class lines.
func Strip(r Relation) Relation {
	b := NewBuilder()
	for from, to := range r.classes {
		if from != to {
			b.Class(from, to)
		}
	}
	for from, to := range r.fields {
		if from.Name != to.Name {
			b.Field(from, to)
		}
	}
	for from, to := range r.methods {
		if from.Name != to.Name {
			b.Method(from, to)
		}
	}
	return b.Build()
}
