package mapping

import (
	"cmp"
	"strings"
)

// ClassName is a fully-qualified class name in dotted form (a.b.C).
type ClassName string

// ClassFromInternal converts an internal name (a/b/C) to a ClassName.
func ClassFromInternal(name string) ClassName {
	return ClassName(strings.ReplaceAll(name, "/", "."))
}

// Internal returns the class name in internal form (a/b/C).
func (c ClassName) Internal() string {
	return strings.ReplaceAll(string(c), ".", "/")
}

// SimpleName returns the last dotted segment of the name, without its package.
func (c ClassName) SimpleName() string {
	return LastSegment(string(c))
}

func (c ClassName) String() string {
	return string(c)
}

// Field identifies a field by declaring class and name. Field types are not
// part of the key; none of the output formats carry them.
type Field struct {
	Owner ClassName
	Name  string
}

func (f Field) String() string {
	return f.Owner.Internal() + "/" + f.Name
}

// Method identifies a method by declaring class, name and descriptor.
type Method struct {
	Owner ClassName
	Name  string
	Desc  string
}

func (m Method) String() string {
	return m.Owner.Internal() + "/" + m.Name + " " + m.Desc
}

// LastSegment returns the text after the final '.' in s.
func LastSegment(s string) string {
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func compareField(a, b Field) int {
	if c := cmp.Compare(a.Owner, b.Owner); c != 0 {
		return c
	}
	return cmp.Compare(a.Name, b.Name)
}

func compareMethod(a, b Method) int {
	if c := cmp.Compare(a.Owner, b.Owner); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmp.Compare(a.Desc, b.Desc)
}
