// Package magpie builds complete, bidirectional identifier mapping sets from a
// handful of obfuscated-to-readable renaming tables and writes them out in the
// SRG family, tiny and JSON formats.
package magpie

// Version is the current release of the magpie CLI.
const Version = "0.1.0"
