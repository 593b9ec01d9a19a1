// Package codec serializes compilation artifacts to canonical JSON.
//
// Every artifact is wrapped in a typed envelope {"kind", "payload"} so a
// loader can recover the concrete type without out-of-band context. The
// payload is RFC 8785 canonical JSON: object keys sorted by UTF-16 code
// units, strings NFC normalized, no HTML escaping, no floats, no nulls.
// Identical structures therefore byte-match, which makes the output
// usable as an identity key and as golden-file content.
//
// Auto-generated uuids are excluded from payloads; loading mints fresh
// ones while preserving internal cross-references (channel wiring,
// stabilizer-to-circuit mappings).
package codec
