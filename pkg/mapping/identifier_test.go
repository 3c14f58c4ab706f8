package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassName_Forms(t *testing.T) {
	c := ClassFromInternal("net/foo/Widget")

	assert.Equal(t, ClassName("net.foo.Widget"), c)
	assert.Equal(t, "net/foo/Widget", c.Internal())
	assert.Equal(t, "Widget", c.SimpleName())
	assert.Equal(t, "Widget", ClassName("Widget").SimpleName())
}

func TestRemapDescriptor(t *testing.T) {
	rename := func(c ClassName) ClassName {
		switch c {
		case "a":
			return "net.Foo"
		case "b":
			return "net.Bar"
		}
		return c
	}

	tests := []struct {
		name string
		desc string
		want string
	}{
		{"primitive only", "(IJ)V", "(IJ)V"},
		{"object parameter", "(La;)V", "(Lnet/Foo;)V"},
		{"object return", "()Lb;", "()Lnet/Bar;"},
		{"arrays and unknown types", "([La;ILjava/lang/String;)[[Lb;", "([Lnet/Foo;ILjava/lang/String;)[[Lnet/Bar;"},
		{"field type", "La;", "Lnet/Foo;"},
		{"empty", "", ""},
		{"unterminated", "(La", "(La"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemapDescriptor(tt.desc, rename))
		})
	}
}
