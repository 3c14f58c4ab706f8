// Package mapping models renaming relations between two namespaces of a
// compiled program.
//
// # Overview
//
// A Relation pairs identifiers of one namespace (usually the obfuscated names
// shipped in a build) with identifiers of another (a readable naming scheme).
// It is split by identifier kind:
//   - classes (ClassName)
//   - fields (Field: owner, name, descriptor)
//   - methods (Method: owner, name, descriptor)
//
// The namespaces themselves are implicit; callers track which relation maps
// from what to what.
//
// # Immutability
//
// Relations are built once with a Builder and never change afterwards.
// Invert, Chain and AndThen always return new values:
//
//	obf2mcp := mapping.NewBuilder().
//	    Class("a", "net.minecraft.Foo").
//	    Build()
//
//	mcp2obf := obf2mcp.Invert()
//	mcp2spigot := mcp2obf.Chain(obf2spigot)
//
// # Leniency
//
// A relation is expected to be a bijection per kind. Upstream tables are not
// always clean, so the Builder does not reject duplicates: a later entry for
// the same source silently replaces the earlier one. Invert resolves
// duplicate targets the same way, in sorted source order.
//
// # Ordering
//
// Accessors such as Classes, Fields and Methods return slices sorted by
// source identifier. Nothing in this package exposes map iteration order.
package mapping
