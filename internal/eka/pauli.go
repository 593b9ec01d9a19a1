package eka

import (
	"fmt"

	"github.com/google/uuid"
)

// Coord is a qubit coordinate on the layout lattice. The third component
// distinguishes co-located roles (0 = data plane, 1 = ancilla plane).
type Coord [3]int

// String renders the coordinate as a stable channel-label key.
func (c Coord) String() string {
	return fmt.Sprintf("(%d, %d, %d)", c[0], c[1], c[2])
}

// PauliOperator is a multi-qubit Pauli string bound to data qubits.
//
// INVARIANT: len(Pauli) == len(DataQubits) and the qubits are unique.
type PauliOperator struct {
	Pauli      string
	DataQubits []Coord
	ID         string
}

// NewPauliOperator validates and builds a Pauli operator.
func NewPauliOperator(pauli string, dataQubits []Coord) (*PauliOperator, error) {
	if err := validatePauli(pauli, dataQubits); err != nil {
		return nil, err
	}
	return &PauliOperator{Pauli: pauli, DataQubits: dataQubits, ID: uuid.NewString()}, nil
}

// Weight returns the number of qubits the operator acts on.
func (p *PauliOperator) Weight() int { return len(p.DataQubits) }

// Uniform reports whether every factor equals the given Pauli letter.
func (p *PauliOperator) Uniform(basis string) bool {
	if len(p.Pauli) == 0 {
		return false
	}
	for _, r := range p.Pauli {
		if string(r) != basis {
			return false
		}
	}
	return true
}

// Stabilizer is a Pauli-operator constraint of the code, together with the
// ancilla qubits used to extract its syndrome.
type Stabilizer struct {
	PauliOperator
	AncillaQubits []Coord
}

// NewStabilizer validates and builds a stabilizer.
func NewStabilizer(pauli string, dataQubits, ancillaQubits []Coord) (*Stabilizer, error) {
	if err := validatePauli(pauli, dataQubits); err != nil {
		return nil, err
	}
	return &Stabilizer{
		PauliOperator: PauliOperator{Pauli: pauli, DataQubits: dataQubits, ID: uuid.NewString()},
		AncillaQubits: ancillaQubits,
	}, nil
}

func validatePauli(pauli string, dataQubits []Coord) error {
	if len(pauli) == 0 || len(pauli) != len(dataQubits) {
		return &StructuralError{
			Code:    ErrCodeBadPauli,
			Message: fmt.Sprintf("pauli string %q does not match %d data qubits", pauli, len(dataQubits)),
			Tick:    -1,
		}
	}
	for _, r := range pauli {
		switch r {
		case 'X', 'Y', 'Z':
		default:
			return &StructuralError{
				Code:    ErrCodeBadPauli,
				Message: fmt.Sprintf("invalid pauli letter %q", string(r)),
				Tick:    -1,
			}
		}
	}
	seen := make(map[Coord]bool, len(dataQubits))
	for _, q := range dataQubits {
		if seen[q] {
			return &StructuralError{
				Code:    ErrCodeBadPauli,
				Message: fmt.Sprintf("duplicate data qubit %s in operator", q),
				Tick:    -1,
			}
		}
		seen[q] = true
	}
	return nil
}
