package eka

import (
	"fmt"

	"github.com/google/uuid"
)

// SyndromeCircuit is a reusable syndrome-extraction template for one
// stabilizer shape. The template's channels are placeholders; applicators
// clone it onto the concrete channels of each block instance.
type SyndromeCircuit struct {
	Name    string
	Pauli   string
	Circuit *Circuit
}

// Block is a code patch: the physical qubits, stabilizers and logical
// operators implementing one (or more) logical qubits.
//
// Blocks are created by a code factory and treated as read-only by the
// interpretation engine; structural operations replace a block with a new
// one rather than mutating it.
type Block struct {
	Label             string
	Stabilizers       []*Stabilizer
	LogicalXOperators []*PauliOperator
	LogicalZOperators []*PauliOperator
	SyndromeCircuits  []*SyndromeCircuit
	// StabilizerToCircuit maps stabilizer id -> syndrome circuit name.
	StabilizerToCircuit map[string]string
	ID                  string
}

// NewBlock validates and builds a block. The label must be non-empty: the
// interpretation driver addresses blocks by label in operations.
func NewBlock(
	label string,
	stabilizers []*Stabilizer,
	logicalX, logicalZ []*PauliOperator,
	syndromeCircuits []*SyndromeCircuit,
	stabilizerToCircuit map[string]string,
) (*Block, error) {
	if label == "" {
		return nil, &StructuralError{
			Code:    ErrCodeBadOperation,
			Message: "block label must not be empty",
			Tick:    -1,
		}
	}
	circuitNames := make(map[string]bool, len(syndromeCircuits))
	for _, sc := range syndromeCircuits {
		circuitNames[sc.Name] = true
	}
	for stabID, circName := range stabilizerToCircuit {
		if !circuitNames[circName] {
			return nil, &StructuralError{
				Code:    ErrCodeBadOperation,
				Message: fmt.Sprintf("stabilizer %s mapped to unknown syndrome circuit %q", stabID, circName),
				Tick:    -1,
			}
		}
	}
	return &Block{
		Label:               label,
		Stabilizers:         stabilizers,
		LogicalXOperators:   logicalX,
		LogicalZOperators:   logicalZ,
		SyndromeCircuits:    syndromeCircuits,
		StabilizerToCircuit: stabilizerToCircuit,
		ID:                  uuid.NewString(),
	}, nil
}

// DataQubits returns the deduplicated data qubits of all stabilizers and
// logical operators, in first-appearance order.
func (b *Block) DataQubits() []Coord {
	seen := make(map[Coord]bool)
	var qubits []Coord
	add := func(qs []Coord) {
		for _, q := range qs {
			if !seen[q] {
				seen[q] = true
				qubits = append(qubits, q)
			}
		}
	}
	for _, s := range b.Stabilizers {
		add(s.DataQubits)
	}
	for _, op := range b.LogicalXOperators {
		add(op.DataQubits)
	}
	for _, op := range b.LogicalZOperators {
		add(op.DataQubits)
	}
	return qubits
}

// AncillaQubits returns the deduplicated ancilla qubits of all stabilizers.
func (b *Block) AncillaQubits() []Coord {
	seen := make(map[Coord]bool)
	var qubits []Coord
	for _, s := range b.Stabilizers {
		for _, q := range s.AncillaQubits {
			if !seen[q] {
				seen[q] = true
				qubits = append(qubits, q)
			}
		}
	}
	return qubits
}

// StabilizerByID returns the stabilizer with the given id, or nil.
func (b *Block) StabilizerByID(id string) *Stabilizer {
	for _, s := range b.Stabilizers {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// CircuitFor returns the syndrome-extraction template for a stabilizer.
func (b *Block) CircuitFor(stabID string) (*SyndromeCircuit, bool) {
	name, ok := b.StabilizerToCircuit[stabID]
	if !ok {
		return nil, false
	}
	for _, sc := range b.SyndromeCircuits {
		if sc.Name == name {
			return sc, true
		}
	}
	return nil, false
}
