package eka

import (
	"errors"
	"fmt"
)

// StructuralError reports a malformed circuit or operator at construction
// time. Structural errors are always fatal to the call that raised them.
type StructuralError struct {
	// Code identifies the violation category.
	Code StructuralErrorCode

	// Message is a human-readable description.
	Message string

	// Circuit names the circuit being constructed, when known.
	Circuit string

	// Channel identifies the offending channel, when known.
	Channel string

	// Tick is the tick index at which the violation occurred, or -1.
	Tick int
}

// StructuralErrorCode categorizes structural violations.
type StructuralErrorCode string

const (
	// ErrCodeChannelCollision indicates a channel is operated on by more
	// than one sub-circuit in a single tick.
	ErrCodeChannelCollision StructuralErrorCode = "CHANNEL_COLLISION"

	// ErrCodeChannelMismatch indicates an explicit channel list that does
	// not match the union of the sub-circuit channels.
	ErrCodeChannelMismatch StructuralErrorCode = "CHANNEL_MISMATCH"

	// ErrCodeDurationMismatch indicates a declared duration inconsistent
	// with the derived duration of the tick tree.
	ErrCodeDurationMismatch StructuralErrorCode = "DURATION_MISMATCH"

	// ErrCodeBadArity indicates a clone onto a channel list of the wrong
	// length or kind.
	ErrCodeBadArity StructuralErrorCode = "BAD_ARITY"

	// ErrCodeBadPauli indicates a Pauli string whose length does not match
	// its qubit list, or duplicate qubits in one operator.
	ErrCodeBadPauli StructuralErrorCode = "BAD_PAULI"

	// ErrCodeBadOperation indicates an operation constructed with invalid
	// parameters (empty block name, non-positive length).
	ErrCodeBadOperation StructuralErrorCode = "BAD_OPERATION"
)

// Error implements the error interface.
func (e *StructuralError) Error() string {
	switch {
	case e.Channel != "" && e.Tick >= 0:
		return fmt.Sprintf("%s: %s (circuit=%q, channel=%s, tick=%d)", e.Code, e.Message, e.Circuit, e.Channel, e.Tick)
	case e.Circuit != "":
		return fmt.Sprintf("%s: %s (circuit=%q)", e.Code, e.Message, e.Circuit)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// IsStructural returns true if err is (or wraps) a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}

// StructuralCode extracts the code from a wrapped StructuralError,
// or "" if err is not structural. Used by tests to assert on categories
// without matching message text.
func StructuralCode(err error) StructuralErrorCode {
	var se *StructuralError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}
