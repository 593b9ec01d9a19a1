// Package harness runs conformance scenarios against the compiler.
//
// A scenario is a YAML file naming a program source (inline CUE or a
// sibling file) plus expectations over the compilation result: artifact
// counts, surviving block labels, circuit shape. Scenario runs can also
// be compared against golden decoding-graph snapshots; the snapshot
// normalizes auto-generated uuids to stable local refs so golden files
// stay byte-stable across runs.
//
// Scenario files live in testdata/scenarios, golden files in
// testdata/golden. Regenerate goldens with:
//
//	go test ./internal/harness -update
package harness
