// Package engine runs builds end to end.
//
// An Engine owns the pieces around a geometry.Builder: the reference
// kernel, the operation journal, per-build metrics and the optional build
// store. Build runs one deck; Replay rebuilds a stored run and compares
// the two journals.
//
// DETERMINISM:
//
// The journal is stamped by a logical clock, never wall time. The same
// deck built with the same options issues the same kernel calls with the
// same handles in the same order, so a stored journal is a complete
// regression oracle for the run that produced it.
package engine
