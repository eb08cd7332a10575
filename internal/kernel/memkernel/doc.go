// Package memkernel is an in-memory reference implementation of kernel.Kernel.
//
// Solids are immutable CSG trees over bounded primitives. Boolean operations
// build new tree nodes and retire their operands, following the handle
// substitution convention of package kernel. Emptiness is decided by point
// sampling over the solid's bounding box, so very thin features (thinner than
// the sampling pitch) may be reported empty.
//
// Handles are generation-counted arena indices: the low 32 bits select a
// slot, the high 32 bits count how often the slot was reissued. A retired
// handle never validates again, even after its slot is reused.
//
// memkernel exists to exercise the geometry core deterministically without
// a B-rep kernel. It is the default kernel of the cellcad CLI.
package memkernel
