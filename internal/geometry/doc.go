// Package geometry assembles cell decks into kernel solids.
//
// The Builder walks the universe hierarchy of a deck depth-first, synthesizes
// each cell's boundary expression into a solid, expands filled cells and
// lattices, and tags the resulting solids with material, importance, cell-id
// and label metadata.
//
// Kernel handles are unstable: every boolean operation may retire its
// operands and mint new handles. All solid-altering calls go through the
// Tracker, which applies the kernel's substitution list to the Registry and
// to every active HandleSet before the call returns. Code that holds a handle
// across a kernel call must hold it in a tracked HandleSet.
//
// Processing is single-threaded and deterministic: cells are defined in
// declaration order and boundary terms are folded left to right.
package geometry
