// Package store provides SQLite-backed durable storage for compilation
// artifacts.
//
// A compilation is identified by (name, spec_hash): the program name and
// the canonical-JSON fingerprint of its source. Writes are idempotent on
// that pair, so re-running a compilation never duplicates rows. Artifact
// payloads (circuit, syndromes, detectors, observables) are stored as
// codec envelopes and keep their emission order through an explicit
// position column; reads always ORDER BY position so results are
// deterministic.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: payload rows cannot outlive their compilation
//
// SQLite allows one writer at a time; the pool is capped at a single
// connection to avoid SQLITE_BUSY errors.
package store
