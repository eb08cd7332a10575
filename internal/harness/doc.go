// Package harness runs conformance scenarios against the geometry builder.
//
// A scenario is a YAML file naming a CUE deck directory, option overrides
// and assertions on the finished build:
//
//	name: two_cells
//	description: material sphere inside a void shell
//	deck: ../decks/two_cells
//	options:
//	  make_graveyard: false
//	assertions:
//	  - type: group_members
//	    group: mat_3_rho_2.5
//	    cells: [1]
//	  - type: body_count
//	    count: 2
//
// Every scenario builds on a fresh reference kernel and records into a
// fresh in-memory store, so scenarios are isolated and their journals are
// deterministic. RunWithGolden compares the journal against a golden file
// under testdata/golden.
package harness
