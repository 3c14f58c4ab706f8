package format

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/firebird-suite/magpie/pkg/mapping"
)

// widgets maps a small obfuscated package to readable names. Every member
// owner agrees with the class table, as in real obf2x tables.
func widgets() mapping.Relation {
	return mapping.NewBuilder().
		Class("a", "net.foo.Widget").
		Class("b", "net.foo.Gadget").
		Field(mapping.Field{Owner: "a", Name: "c"}, mapping.Field{Owner: "net.foo.Widget", Name: "size"}).
		Method(
			mapping.Method{Owner: "a", Name: "d", Desc: "(Lb;I)La;"},
			mapping.Method{Owner: "net.foo.Widget", Name: "attach", Desc: "(Lnet/foo/Gadget;I)Lnet/foo/Widget;"},
		).
		Method(
			mapping.Method{Owner: "b", Name: "e", Desc: "()V"},
			mapping.Method{Owner: "net.foo.Gadget", Name: "reset", Desc: "()V"},
		).
		Build()
}

func TestSRGLines(t *testing.T) {
	lines := SRGLines(widgets())

	assert.Equal(t, []string{
		"CL: a net/foo/Widget",
		"CL: b net/foo/Gadget",
		"FD: a/c net/foo/Widget/size",
		"MD: a/d (Lb;I)La; net/foo/Widget/attach (Lnet/foo/Gadget;I)Lnet/foo/Widget;",
		"MD: b/e ()V net/foo/Gadget/reset ()V",
	}, lines)
}

func TestSRGLines_PackagedClass(t *testing.T) {
	r := mapping.NewBuilder().Class("a.b.C1", "net.foo.Widget").Build()

	assert.Equal(t, []string{"CL: a/b/C1 net/foo/Widget"}, SRGLines(r))
}

func TestParseSRG_RoundTrip(t *testing.T) {
	parsed, err := ParseSRG(SRGLines(widgets()))

	require.NoError(t, err)
	assert.True(t, parsed.Equal(widgets()))
}

func TestParseSRG_SkipsCommentsAndPackages(t *testing.T) {
	parsed, err := ParseSRG([]string{
		"# generated",
		"",
		"PK: ./ net/foo",
		"CL: a net/foo/Widget",
		"FD: a/b I net/foo/Widget/count I",
	})

	require.NoError(t, err)
	f, ok := parsed.Field(mapping.Field{Owner: "a", Name: "b"})
	require.True(t, ok)
	assert.Equal(t, mapping.Field{Owner: "net.foo.Widget", Name: "count"}, f)
}

func TestParseSRG_FieldDescriptors(t *testing.T) {
	typed, err := ParseSRG([]string{
		"CL: a net/foo/Widget",
		"FD: a/b I net/foo/Widget/count I",
		"FD: a/c J net/foo/Widget/total J",
	})
	require.NoError(t, err)

	lines := SRGLines(typed)
	assert.Equal(t, []string{
		"CL: a net/foo/Widget",
		"FD: a/b net/foo/Widget/count",
		"FD: a/c net/foo/Widget/total",
	}, lines)

	reparsed, err := ParseSRG(lines)
	require.NoError(t, err)
	assert.True(t, reparsed.Equal(typed))

	// A table read without descriptors still composes with one read with them.
	plain, err := ParseCSRG([]string{
		"net/foo/Widget net/bar/Widget",
		"net/foo/Widget count amount",
		"net/foo/Widget total sum",
	})
	require.NoError(t, err)

	chained := typed.Chain(plain)
	_, fields, _ := chained.Counts()
	assert.Equal(t, 2, fields)
	f, ok := chained.Field(mapping.Field{Owner: "a", Name: "c"})
	require.True(t, ok)
	assert.Equal(t, mapping.Field{Owner: "net.bar.Widget", Name: "sum"}, f)
}

func TestParseSRG_Errors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"no record type", "a net/foo/Widget"},
		{"unknown record", "XX: a b"},
		{"short class", "CL: a"},
		{"field without owner", "FD: b net/foo/Widget/size"},
		{"short method", "MD: a/b ()V net/Foo/c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSRG([]string{"CL: ok net/Ok", tt.line})
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, 2, perr.Line)
			assert.Equal(t, tt.line, perr.Text)
		})
	}
}

func TestCSRGLines(t *testing.T) {
	assert.Equal(t, []string{
		"a net/foo/Widget",
		"b net/foo/Gadget",
		"a c size",
		"a d (Lb;I)La; attach",
		"b e ()V reset",
	}, CSRGLines(widgets()))
}

func TestParseCSRG_RoundTrip(t *testing.T) {
	lines := CSRGLines(widgets())
	slices.Sort(lines)

	parsed, err := ParseCSRG(lines)

	require.NoError(t, err)
	assert.True(t, parsed.Equal(widgets()))
}

func TestParseCSRG_Errors(t *testing.T) {
	_, err := ParseCSRG([]string{"a b c d e"})

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, perr.Line)
}

func TestTSRGFromSRG(t *testing.T) {
	srg := SRGLines(widgets())
	slices.Sort(srg)

	tsrg, err := TSRGFromSRG(srg)

	require.NoError(t, err)
	assert.Equal(t, []string{
		"a net/foo/Widget",
		"\tc size",
		"\td (Lb;I)La; attach",
		"b net/foo/Gadget",
		"\te ()V reset",
	}, tsrg)
}

func TestTSRGFromSRG_MemberWithoutClassLine(t *testing.T) {
	tsrg, err := TSRGFromSRG([]string{
		"FD: net/Same/a net/Same/count",
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"net/Same net/Same", "\ta count"}, tsrg)
}

func TestParseTSRG_RoundTrip(t *testing.T) {
	srg := SRGLines(widgets())
	slices.Sort(srg)
	tsrg, err := TSRGFromSRG(srg)
	require.NoError(t, err)

	parsed, err := ParseTSRG(tsrg)

	require.NoError(t, err)
	assert.True(t, parsed.Equal(widgets()))
}

func TestParseTSRG_Errors(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
	}{
		{"member before class", []string{"\ta b"}},
		{"bad class line", []string{"a b c"}},
		{"bad member line", []string{"a A", "\tx"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTSRG(tt.lines)
			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestParse_Dispatch(t *testing.T) {
	input := strings.Join(SRGLines(widgets()), "\r\n")

	parsed, err := Parse(KindSRG, strings.NewReader(input))

	require.NoError(t, err)
	assert.True(t, parsed.Equal(widgets()))

	_, err = ParseLines(Kind("proguard"), nil)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" TSRG ")
	require.NoError(t, err)
	assert.Equal(t, KindTSRG, k)
	assert.Equal(t, ".tsrg", k.Extension())

	_, err = ParseKind("tiny")
	assert.Error(t, err)

	k, err = KindFromPath("cache/spigot/members.csrg")
	require.NoError(t, err)
	assert.Equal(t, KindCSRG, k)

	_, err = KindFromPath("README")
	assert.Error(t, err)
}

// Tiny rows hold full internal names, as in the tiny v1 format. The short
// "C1 -> Widget" form appears only in the JSON summary.
func TestTiny_SingleNamespace(t *testing.T) {
	tiny := NewTiny()
	tiny.Add("mcp", mapping.NewBuilder().Class("a.b.C1", "net.foo.Widget").Build())

	assert.Equal(t, []string{
		"v1\tobf\tmcp",
		"CLASS\ta/b/C1\tnet/foo/Widget",
	}, tiny.Lines())
}

func TestTiny_MergesColumnsInSupplyOrder(t *testing.T) {
	mcp := mapping.NewBuilder().
		Class("a", "net.Widget").
		Field(mapping.Field{Owner: "a", Name: "b"}, mapping.Field{Owner: "net.Widget", Name: "size"}).
		Build()
	spigot := mapping.NewBuilder().
		Class("a", "Widget").
		Class("z", "Zed").
		Method(mapping.Method{Owner: "a", Name: "c", Desc: "()V"}, mapping.Method{Owner: "Widget", Name: "run", Desc: "()V"}).
		Build()

	tiny := NewTiny()
	tiny.Add("spigot", spigot)
	tiny.Add("mcp", mcp)

	assert.Equal(t, []string{"spigot", "mcp"}, tiny.Namespaces())
	assert.Equal(t, []string{
		"v1\tobf\tspigot\tmcp",
		"CLASS\ta\tWidget\tnet/Widget",
		"CLASS\tz\tZed\t",
		"FIELD\ta\t\tb\t\tsize",
		"METHOD\ta\t()V\tc\trun\t",
	}, tiny.Lines())
}

func TestSummary_SingleNamespace(t *testing.T) {
	s := NewSummary("1.18.1")
	s.Add("mcp", mapping.NewBuilder().Class("a.b.C1", "net.foo.Widget").Build())

	data, err := s.Marshal()

	require.NoError(t, err)
	assert.Equal(t,
		`{"version":"1.18.1","classes":[{"obf":"C1","mcp":"Widget"}],"fields":[],"methods":[]}`,
		string(data))
}

func TestSummary_RecordsKeepNamespaceOrder(t *testing.T) {
	s := NewSummary("1.0")
	s.Add("mcp", widgets())
	s.Add("spigot", mapping.NewBuilder().
		Class("a", "Widget").
		Field(mapping.Field{Owner: "a", Name: "c"}, mapping.Field{Owner: "Widget", Name: "size"}).
		Build())

	doc := s.Document()

	require.Len(t, doc.Classes, 2)
	assert.Equal(t, Record{{"obf", "a"}, {"mcp", "Widget"}, {"spigot", "Widget"}}, doc.Classes[0])
	assert.Equal(t, Record{{"obf", "b"}, {"mcp", "Gadget"}}, doc.Classes[1])

	require.Len(t, doc.Fields, 1)
	assert.Equal(t, Record{{"obf", "a.c"}, {"mcp", "Widget.size"}, {"spigot", "Widget.size"}}, doc.Fields[0])

	require.Len(t, doc.Methods, 2)
	v, ok := doc.Methods[0].Get("mcp")
	require.True(t, ok)
	assert.Equal(t, "Widget.attach", v)

	data, err := s.Marshal()
	require.NoError(t, err)

	var generic map[string]any
	require.NoError(t, json.Unmarshal(data, &generic))
	assert.Equal(t, "1.0", generic["version"])
	assert.True(t, strings.Index(string(data), `"mcp"`) < strings.Index(string(data), `"spigot"`))
}
