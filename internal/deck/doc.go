// Package deck provides the parsed-deck types consumed by the geometry core.
//
// This package contains type definitions and small value helpers only. All
// other internal packages import deck; deck imports nothing internal. A Deck
// is read-only once compiled: the geometry core never mutates cells,
// surfaces or transforms.
//
// Key design constraints:
//   - Cells keep their declaration order (ordering determinism)
//   - Boundary expressions are stored as RPN token lists, folded left to right
//   - Universe 0 is the root universe
//   - All JSON tags use snake_case
package deck
