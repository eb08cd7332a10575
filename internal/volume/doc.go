// Package volume turns surface cards into bounded kernel regions.
//
// A signed surface reference selects one side of a surface: negative sense
// is the inside of a closed surface or the low side of a plane, positive
// sense is the outside or the high side. Every region is bounded by the
// world size so the kernel only ever builds finite solids.
package volume
