// Package kernel defines the contract between the geometry core and a
// boundary-representation geometry kernel.
//
// # Unstable Handles
//
// Every kernel-owned solid is referenced by an opaque Handle. Handles are
// short-lived: a boolean operation retires its operands and mints a result.
// Each solid-altering call returns a Result listing (old → new)
// substitutions; New == Nil means the old entity was fully consumed.
//
// Substitution convention:
//   - Intersect/Unite/Subtract(blank, tool): blank → result, tool → Nil
//   - Transform(h): h → result
//   - Imprint/Merge: any body whose identity changed
//
// Callers that hold handles across these calls must route them through the
// geometry core's tracker; the kernel does not know who references what.
//
// # Journal
//
// Recorder decorates any Kernel and stamps each call with a logical sequence
// number. Two builds of the same deck must produce identical journals.
package kernel
