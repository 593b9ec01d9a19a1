// Package program compiles declarative CUE program sources into
// executable programs.
//
// A source declares the initial code blocks (by factory parameters, not
// by explicit qubit layout) and the operation groups to interpret over
// them:
//
//	program: {
//		name: "caterpillar"
//
//		block: chain: {
//			code:     "repetition"
//			check:    "Z"
//			distance: 3
//			position: 5
//		}
//
//		groups: [
//			[{op: "reset_data", block: "chain", state: "0"}],
//			[{op: "measure_syndromes", block: "chain", rounds: 2}],
//		]
//	}
//
// Compilation uses the CUE SDK's Go API directly, never a CLI
// subprocess. Errors carry source positions where CUE provides them.
package program
