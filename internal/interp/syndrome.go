package interp

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Cbit addresses one classical measurement slot: a classical register name
// plus a strictly increasing shot index within that register.
type Cbit struct {
	Bit   string `json:"bit"`
	Index int    `json:"index"`
}

func (c Cbit) String() string { return fmt.Sprintf("%s[%d]", c.Bit, c.Index) }

// Syndrome is the measured outcome of one stabilizer at one point in time,
// plus the sign corrections accumulated from prior operations.
//
// Round -1 marks a virtual syndrome: the trivially known prior value that
// reset-like operations pair the first real measurement against.
//
// Identity covers (stabilizer, measurements, block, round, corrections)
// only; Labels and ID are diagnostic and excluded.
type Syndrome struct {
	Stabilizer   string            `json:"stabilizer"`
	Measurements []Cbit            `json:"measurements"`
	Block        string            `json:"block"`
	Round        int               `json:"round"`
	Corrections  []Cbit            `json:"corrections"`
	ID           string            `json:"id"`
	Labels       map[string]string `json:"labels,omitempty"`
}

// NewSyndrome builds a syndrome with a fresh uuid.
func NewSyndrome(stabilizer string, measurements []Cbit, block string, round int, corrections []Cbit) *Syndrome {
	return &Syndrome{
		Stabilizer:   stabilizer,
		Measurements: measurements,
		Block:        block,
		Round:        round,
		Corrections:  corrections,
		ID:           uuid.NewString(),
	}
}

// VirtualSyndrome builds the round -1 placeholder a reset-like operation
// seeds history with: no measurements, no corrections.
func VirtualSyndrome(stabilizer, block string) *Syndrome {
	return NewSyndrome(stabilizer, nil, block, -1, nil)
}

// IsVirtual reports whether the syndrome is a round -1 placeholder.
func (s *Syndrome) IsVirtual() bool { return s.Round == -1 }

// Key returns the canonical identity string. Two syndromes are equal iff
// their keys match; labels and uuid do not participate.
func (s *Syndrome) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "stab=%s|block=%s|round=%d|m=", s.Stabilizer, s.Block, s.Round)
	for i, m := range s.Measurements {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(m.String())
	}
	b.WriteString("|c=")
	for i, c := range s.Corrections {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(c.String())
	}
	return b.String()
}

// Equal reports identity equality per Key.
func (s *Syndrome) Equal(other *Syndrome) bool {
	return other != nil && s.Key() == other.Key()
}

// Detector is a set of syndromes whose combined parity is deterministic
// absent errors. Syndromes are kept in increasing temporal order. Identity
// covers the syndrome tuple only.
type Detector struct {
	Syndromes []*Syndrome       `json:"syndromes"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// NewDetector builds a detector over at least one syndrome.
func NewDetector(syndromes ...*Syndrome) *Detector {
	return &Detector{Syndromes: syndromes}
}

// Key returns the canonical identity string over the syndrome tuple.
func (d *Detector) Key() string {
	keys := make([]string, len(d.Syndromes))
	for i, s := range d.Syndromes {
		keys[i] = s.Key()
	}
	return strings.Join(keys, ";")
}

// Equal reports identity equality per Key.
func (d *Detector) Equal(other *Detector) bool {
	return other != nil && d.Key() == other.Key()
}
