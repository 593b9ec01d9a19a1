package cli

import (
	"errors"

	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/program"
)

// Error codes for CLI error reporting.
const (
	// General errors.
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Path or compilation not found
	ErrCodeWriteFailed = "E003" // File write error
	ErrCodeStoreFailed = "E004" // Store open/read/write error

	// Program compilation errors, keyed by the offending field.
	ErrCodeProgramMissing = "E101" // No program declaration
	ErrCodeProgramName    = "E102" // Missing or invalid name
	ErrCodeProgramBlocks  = "E103" // Missing or invalid blocks
	ErrCodeProgramGroups  = "E104" // Invalid operation groups
	ErrCodeProgramCode    = "E105" // Unknown code family
	ErrCodeProgramCUE     = "E106" // CUE evaluation error

	// Interpretation errors.
	ErrCodeInterpFailed = "E201" // Operation dispatch or application failure
	ErrCodeBadStructure = "E202" // Structural invariant violation
)

// MapFieldToErrorCode maps a CompileError field to a CLI error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "program":
		return ErrCodeProgramMissing
	case "name":
		return ErrCodeProgramName
	case "block", "distance", "check", "position":
		return ErrCodeProgramBlocks
	case "groups", "op", "rounds", "state", "basis", "qubit",
		"direction", "amount", "blocks", "into", "output", "orientation":
		return ErrCodeProgramGroups
	case "code":
		return ErrCodeProgramCode
	case "cue":
		return ErrCodeProgramCUE
	default:
		return ErrCodeGeneric
	}
}

// parseCompileError extracts an error code and message from a compilation
// error.
func parseCompileError(err error) (string, string) {
	var compileErr *program.CompileError
	if errors.As(err, &compileErr) {
		return MapFieldToErrorCode(compileErr.Field), compileErr.Message
	}
	var structErr *eka.StructuralError
	if errors.As(err, &structErr) {
		return ErrCodeBadStructure, structErr.Message
	}
	return ErrCodeGeneric, err.Error()
}
