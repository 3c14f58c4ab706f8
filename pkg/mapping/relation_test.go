package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sample maps obfuscated names to a readable scheme.
func sample() Relation {
	return NewBuilder().
		Class("a", "net.foo.Widget").
		Class("b", "net.foo.Gadget").
		Field(Field{Owner: "a", Name: "c"}, Field{Owner: "net.foo.Widget", Name: "size"}).
		Method(
			Method{Owner: "a", Name: "d", Desc: "(Lb;)V"},
			Method{Owner: "net.foo.Widget", Name: "attach", Desc: "(Lnet/foo/Gadget;)V"},
		).
		Build()
}

func TestBuilder_LastWriteWins(t *testing.T) {
	r := NewBuilder().
		Class("a", "First").
		Class("a", "Second").
		Build()

	to, ok := r.Class("a")
	require.True(t, ok)
	assert.Equal(t, ClassName("Second"), to)
	assert.Equal(t, 1, r.Len())
}

func TestBuilder_BuildIsSnapshot(t *testing.T) {
	b := NewBuilder().Class("a", "A")
	first := b.Build()

	b.Class("b", "B")
	second := b.Build()

	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 2, second.Len())
}

func TestRelation_ZeroValue(t *testing.T) {
	var r Relation

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.Classes())
	assert.True(t, r.Equal(NewBuilder().Build()))
	assert.Equal(t, ClassName("x"), r.MapClass("x"))
	assert.Equal(t, 0, r.Invert().Len())
}

func TestRelation_AccessorsSorted(t *testing.T) {
	r := NewBuilder().
		Class("c", "C").
		Class("a", "A").
		Class("b", "B").
		Field(Field{Owner: "b", Name: "x"}, Field{Owner: "B", Name: "X"}).
		Field(Field{Owner: "a", Name: "y"}, Field{Owner: "A", Name: "Y"}).
		Field(Field{Owner: "a", Name: "x"}, Field{Owner: "A", Name: "X"}).
		Build()

	classes := r.Classes()
	require.Len(t, classes, 3)
	assert.Equal(t, []ClassName{"a", "b", "c"}, []ClassName{classes[0].From, classes[1].From, classes[2].From})

	fields := r.Fields()
	require.Len(t, fields, 3)
	assert.Equal(t, "a/x", fields[0].From.String())
	assert.Equal(t, "a/y", fields[1].From.String())
	assert.Equal(t, "b/x", fields[2].From.String())
}

func TestRelation_InvertIsInvolutive(t *testing.T) {
	r := sample()

	inverted := r.Invert()
	assert.False(t, inverted.Equal(r))
	assert.True(t, inverted.Invert().Equal(r))

	to, ok := inverted.Class("net.foo.Widget")
	require.True(t, ok)
	assert.Equal(t, ClassName("a"), to)

	m, ok := inverted.Method(Method{Owner: "net.foo.Widget", Name: "attach", Desc: "(Lnet/foo/Gadget;)V"})
	require.True(t, ok)
	assert.Equal(t, Method{Owner: "a", Name: "d", Desc: "(Lb;)V"}, m)
}

func TestRelation_InvertDuplicateTargetIsDeterministic(t *testing.T) {
	r := NewBuilder().
		Class("b", "Same").
		Class("a", "Same").
		Build()

	for i := 0; i < 20; i++ {
		to, ok := r.Invert().Class("Same")
		require.True(t, ok)
		assert.Equal(t, ClassName("b"), to, "the source sorting last should win")
	}
}

func TestRelation_ChainDropsUnresolved(t *testing.T) {
	first := NewBuilder().
		Class("x", "a").
		Class("y", "b").
		Build()
	second := NewBuilder().
		Class("a", "Alpha").
		Build()

	chained := first.Chain(second)

	assert.Equal(t, 1, chained.Len())
	to, ok := chained.Class("x")
	require.True(t, ok)
	assert.Equal(t, ClassName("Alpha"), to)

	_, ok = chained.Class("y")
	assert.False(t, ok, "y has no counterpart in second and must be dropped")
}

func TestRelation_ChainWithIdentity(t *testing.T) {
	r := sample()

	identity := NewBuilder()
	for _, p := range r.Classes() {
		identity.Class(p.To, p.To)
	}
	for _, p := range r.Fields() {
		identity.Field(p.To, p.To)
	}
	for _, p := range r.Methods() {
		identity.Method(p.To, p.To)
	}

	chained := r.Chain(identity.Build())
	assert.True(t, Strip(chained).Equal(Strip(r)))
}

func TestRelation_RoundTripViaObf(t *testing.T) {
	obf2a := NewBuilder().
		Class("o1", "a.One").
		Class("o2", "a.Two").
		Field(Field{Owner: "o1", Name: "f"}, Field{Owner: "a.One", Name: "count"}).
		Build()
	obf2b := NewBuilder().
		Class("o1", "b.Uno").
		Class("o3", "b.Tres").
		Field(Field{Owner: "o1", Name: "f"}, Field{Owner: "b.Uno", Name: "numero"}).
		Build()

	a2b := obf2a.Invert().Chain(obf2b)

	for _, p := range obf2a.Classes() {
		direct, inB := obf2b.Class(p.From)
		got, ok := a2b.Class(p.To)
		assert.Equal(t, inB, ok, "class %s", p.To)
		if inB {
			assert.Equal(t, direct, got)
		}
	}

	got, ok := a2b.Field(Field{Owner: "a.One", Name: "count"})
	require.True(t, ok)
	assert.Equal(t, Field{Owner: "b.Uno", Name: "numero"}, got)
	assert.Equal(t, 2, a2b.Len())
}

func TestRelation_AndThenClassThenMembers(t *testing.T) {
	// Member tables are written against already renamed classes.
	classes := NewBuilder().
		Class("a", "net.Foo").
		Class("b", "net.Bar").
		Build()
	members := NewBuilder().
		Field(Field{Owner: "net.Foo", Name: "x"}, Field{Owner: "net.Foo", Name: "count"}).
		Method(
			Method{Owner: "net.Foo", Name: "y", Desc: "(Lnet/Bar;)V"},
			Method{Owner: "net.Foo", Name: "attach", Desc: "(Lnet/Bar;)V"},
		).
		Build()

	layered := classes.AndThen(members)

	to, ok := layered.Class("a")
	require.True(t, ok)
	assert.Equal(t, ClassName("net.Foo"), to)

	f, ok := layered.Field(Field{Owner: "a", Name: "x"})
	require.True(t, ok)
	assert.Equal(t, Field{Owner: "net.Foo", Name: "count"}, f)

	m, ok := layered.Method(Method{Owner: "a", Name: "y", Desc: "(Lb;)V"})
	require.True(t, ok)
	assert.Equal(t, "attach", m.Name)
	assert.Equal(t, "(Lnet/Bar;)V", m.Desc)
}

func TestRelation_AndThenBaseThenPartialRename(t *testing.T) {
	obf2srg := NewBuilder().
		Class("a", "net.Foo").
		Field(Field{Owner: "a", Name: "b"}, Field{Owner: "net.Foo", Name: "field_1_a"}).
		Method(
			Method{Owner: "a", Name: "c", Desc: "(La;)V"},
			Method{Owner: "net.Foo", Name: "func_2_b", Desc: "(Lnet/Foo;)V"},
		).
		Method(
			Method{Owner: "a", Name: "d", Desc: "()V"},
			Method{Owner: "net.Foo", Name: "func_3_c", Desc: "()V"},
		).
		Build()
	srg2mcp := NewBuilder().
		Field(Field{Owner: "net.Foo", Name: "field_1_a"}, Field{Owner: "net.Foo", Name: "size"}).
		Method(
			Method{Owner: "net.Foo", Name: "func_2_b", Desc: "(Lnet/Foo;)V"},
			Method{Owner: "net.Foo", Name: "merge", Desc: "(Lnet/Foo;)V"},
		).
		Build()

	obf2mcp := obf2srg.AndThen(srg2mcp)

	to, ok := obf2mcp.Class("a")
	require.True(t, ok)
	assert.Equal(t, ClassName("net.Foo"), to, "classes pass through the member-only table")

	f, _ := obf2mcp.Field(Field{Owner: "a", Name: "b"})
	assert.Equal(t, "size", f.Name)

	m, _ := obf2mcp.Method(Method{Owner: "a", Name: "c", Desc: "(La;)V"})
	assert.Equal(t, "merge", m.Name)

	unnamed, ok := obf2mcp.Method(Method{Owner: "a", Name: "d", Desc: "()V"})
	require.True(t, ok, "methods without an mcp name keep their srg name")
	assert.Equal(t, "func_3_c", unnamed.Name)

	classCount, _, _ := obf2mcp.Counts()
	assert.Equal(t, 1, classCount)
}

func TestStrip(t *testing.T) {
	r := NewBuilder().
		Class("a", "a").
		Class("b", "net.Bar").
		Field(Field{Owner: "b", Name: "x"}, Field{Owner: "net.Bar", Name: "x"}).
		Field(Field{Owner: "b", Name: "y"}, Field{Owner: "net.Bar", Name: "count"}).
		Method(Method{Owner: "b", Name: "m", Desc: "()V"}, Method{Owner: "net.Bar", Name: "m", Desc: "()V"}).
		Method(Method{Owner: "b", Name: "n", Desc: "(Lb;)V"}, Method{Owner: "net.Bar", Name: "run", Desc: "(Lnet/Bar;)V"}).
		Build()

	stripped := Strip(r)

	classes, fields, methods := stripped.Counts()
	assert.Equal(t, 1, classes)
	assert.Equal(t, 1, fields)
	assert.Equal(t, 1, methods)

	_, ok := stripped.Class("a")
	assert.False(t, ok)

	// Owner changes alone do not count as a rename.
	_, ok = stripped.Field(Field{Owner: "b", Name: "x"})
	assert.False(t, ok)

	m, ok := stripped.Method(Method{Owner: "b", Name: "n", Desc: "(Lb;)V"})
	require.True(t, ok)
	assert.Equal(t, "(Lnet/Bar;)V", m.Desc, "retained entries keep owner and descriptor")
}

func TestStrip_Idempotent(t *testing.T) {
	r := NewBuilder().
		Class("a", "a").
		Class("b", "B").
		Field(Field{Owner: "b", Name: "x"}, Field{Owner: "B", Name: "x"}).
		Build()

	once := Strip(r)
	assert.True(t, Strip(once).Equal(once))
	assert.True(t, Strip(r).Equal(once))
}
