package mapping

import "strings"

// RemapDescriptor rewrites every object type (Lpkg/Name;) in a JVM field or
// method descriptor through fn. Primitive and array markers are copied as-is.
// A descriptor with an unterminated object type is returned unchanged.
func RemapDescriptor(desc string, fn func(ClassName) ClassName) string {
	if !strings.ContainsRune(desc, 'L') {
		return desc
	}

	var b strings.Builder
	b.Grow(len(desc))

	for i := 0; i < len(desc); i++ {
		ch := desc[i]
		if ch != 'L' {
			b.WriteByte(ch)
			continue
		}

		end := strings.IndexByte(desc[i:], ';')
		if end < 0 {
			return desc
		}

		name := ClassFromInternal(desc[i+1 : i+end])
		b.WriteByte('L')
		b.WriteString(fn(name).Internal())
		b.WriteByte(';')
		i += end
	}

	return b.String()
}
