// Package tree materializes flat record lists into ordered forests.
//
// Every record carries an identifier and a parent identifier. A build makes a
// single index of identifiers and then attaches each record to the record that
// owns its parent identifier, in input order. Records whose parent identifier
// is absent or unknown become roots.
//
// Three record shapes are supported:
//
//	// Typed records implement Node.
//	roots, err := tree.Build[int](menus)
//
//	// Pointer-to-struct (or map) records with fields named at call time.
//	roots, err := tree.BuildFields(menus, "ID", "Pid", "Child")
//
//	// Open map records; children go under the "children" key.
//	roots, err := tree.BuildMaps(rows, "id", "pid")
//
// The first record holding an identifier owns it: later records sharing the
// identifier are still placed in the forest but never receive children.
//
// Builds are all-or-nothing. Field resolution failures, non-comparable
// identifiers and (by default) parent cycles are reported before any record is
// mutated.
//
// Struct fields are matched by Go name, `tree` tag, `json` tag or
// case-insensitive Go name, first on the record's own struct and then on
// structs embedded exactly one level deep. Fields promoted from deeper
// embedding levels are not resolved.
//
// The package keeps no state between calls apart from a cache of resolved
// struct accessors. Records are mutated in place and callers must serialize
// builds over shared records themselves.
package tree
