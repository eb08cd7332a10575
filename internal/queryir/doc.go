// Package queryir provides a small query representation for reading build
// journals back out of the store.
//
// A query selects the operations of one run, optionally filtered by a
// predicate tree. The representation is backend-neutral; internal/querysql
// compiles it to parameterized SQL for the SQLite store.
//
//	[CLI flags] → [Query IR] → [SQL]
//
// SEALED INTERFACES:
//
// Predicate is a sealed interface using the marker method pattern. Only
// types in this package can implement it, so compilers can switch over the
// complete set of node types.
//
// Supported predicates:
//   - OpIs: operation name equals a value
//   - Involves: handle appears as an operand, result or substitution
//   - Failed: the kernel returned an error
//   - SeqRange: sequence number within an inclusive range
//   - And / Or: conjunction and disjunction
package queryir
