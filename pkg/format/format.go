// Package format encodes and decodes mapping tables.
//
// # Formats
//
// Per-relation formats, all using internal class names (a/b/C):
//
//	SRG   CL: a net/foo/Widget
//	      FD: a/b net/foo/Widget/size
//	      MD: a/c (La;)V net/foo/Widget/attach (Lnet/foo/Widget;)V
//	CSRG  a net/foo/Widget
//	      a b size
//	      a c (La;)V attach
//	TSRG  a net/foo/Widget
//	      	b size
//	      	c (La;)V attach
//
// Multi-namespace formats, fed with the obf2<x> relations in supply order:
//
//	tiny  v1 header, then CLASS / FIELD / METHOD rows with one column per namespace
//	JSON  {"version", "classes", "fields", "methods"} with short names per namespace
//
// Encoders never depend on map iteration order. Callers that need
// byte-reproducible files sort the SRG and CSRG lines before writing; TSRG is
// derived from already sorted SRG lines.
package format

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/simonhull/firebird-suite/magpie/pkg/mapping"
)

// Kind names a per-relation mapping format.
type Kind string

const (
	KindSRG  Kind = "srg"
	KindCSRG Kind = "csrg"
	KindTSRG Kind = "tsrg"
)

// Kinds lists the per-relation formats in the order files are emitted.
var Kinds = []Kind{KindSRG, KindCSRG, KindTSRG}

// Extension returns the file extension for the format, with the leading dot.
func (k Kind) Extension() string {
	return "." + string(k)
}

// ParseKind validates a format name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindSRG, KindCSRG, KindTSRG:
		return k, nil
	default:
		return "", fmt.Errorf("unknown mapping format %q (expected srg, csrg or tsrg)", s)
	}
}

// KindFromPath guesses the format from a file extension.
func KindFromPath(path string) (Kind, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot detect mapping format of %s: no extension", path)
	}
	return ParseKind(ext)
}

// ParseError reports a malformed input line.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
}

// Parse decodes a relation in the given format.
func Parse(kind Kind, r io.Reader) (mapping.Relation, error) {
	lines, err := ReadLines(r)
	if err != nil {
		return mapping.Relation{}, err
	}
	return ParseLines(kind, lines)
}

// ParseLines decodes a relation from lines already read into memory.
func ParseLines(kind Kind, lines []string) (mapping.Relation, error) {
	switch kind {
	case KindSRG:
		return ParseSRG(lines)
	case KindCSRG:
		return ParseCSRG(lines)
	case KindTSRG:
		return ParseTSRG(lines)
	default:
		return mapping.Relation{}, fmt.Errorf("unknown mapping format %q", kind)
	}
}

// ReadLines splits r into lines without their terminators. A trailing
// carriage return is dropped so CRLF files parse like LF files.
func ReadLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading mapping lines: %w", err)
	}
	return lines, nil
}

// skippable reports blank and comment lines.
func skippable(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// splitMember splits "owner/name" at the last slash.
func splitMember(s string) (mapping.ClassName, string, bool) {
	owner, name, ok := cutMember(s)
	return mapping.ClassFromInternal(owner), name, ok
}

func joinMember(owner mapping.ClassName, name string) string {
	return owner.Internal() + "/" + name
}
