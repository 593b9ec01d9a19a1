package codec

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed fingerprints. The version suffix
// leaves room for algorithm migration without colliding with old hashes.
const (
	DomainProgram  = "stitch/program/v1"
	DomainArtifact = "stitch/artifact/v1"
)

// HashWithDomain computes SHA256(domain || 0x00 || data). The null byte
// keeps the domain/data boundary unambiguous.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint canonically marshals v and hashes it under the given
// domain. Structurally identical values fingerprint identically.
func Fingerprint(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return HashWithDomain(domain, canonical), nil
}
