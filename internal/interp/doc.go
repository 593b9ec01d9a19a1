// Package interp is the interpretation engine: it turns an eka.Program
// into a time-scheduled physical circuit plus the decoding graph
// (syndromes and detectors) consumed by external decoders.
//
// The engine is deliberately code-agnostic. Everything code-specific
// (geometry, syndrome-extraction templates, the effect of grow/shrink/
// merge/split on a particular code) enters through the applicator
// Registry; the driver only sequences applicators, merges their circuit
// output through padded scheduling, and maintains the global invariants:
// no channel double-booked in a time slice, monotonic block identity,
// exactly-once consumption of pending corrections, and chronologically
// correct syndrome pairing across structural changes.
//
// Execution is single-threaded and synchronous. The Step is mutated in
// place through the whole compilation; applicators own it exclusively for
// the duration of their call and must not retain references across calls.
package interp
