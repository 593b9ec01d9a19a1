package interp

import (
	"errors"
	"fmt"
)

// ConsistencyError reports a violation of an interpretation-wide invariant:
// block-history inconsistencies, overlapping parallel operations, mutation
// of a sealed step. Consistency errors are fatal to the whole compilation;
// no partial results are exposed.
type ConsistencyError struct {
	// Code identifies the violation category.
	Code ConsistencyErrorCode

	// Message is a human-readable description.
	Message string

	// Block identifies the affected block, when known.
	Block string

	// Timestamp is the first inconsistent history timestamp, or -1.
	Timestamp int
}

// ConsistencyErrorCode categorizes consistency violations.
type ConsistencyErrorCode string

const (
	// ErrCodeHistoryConflict indicates a block-history update that does
	// not hold at some recorded timestamp.
	ErrCodeHistoryConflict ConsistencyErrorCode = "HISTORY_CONFLICT"

	// ErrCodeIDReuse indicates a block id introduced twice over the whole
	// timeline.
	ErrCodeIDReuse ConsistencyErrorCode = "ID_REUSE"

	// ErrCodeInvalidTimestamp indicates a negative or otherwise invalid
	// timestamp argument.
	ErrCodeInvalidTimestamp ConsistencyErrorCode = "INVALID_TIMESTAMP"

	// ErrCodeOverlappingOps indicates parallel operations acting on a
	// shared block.
	ErrCodeOverlappingOps ConsistencyErrorCode = "OVERLAPPING_OPS"

	// ErrCodeSealedStep indicates a mutation attempted after the final
	// circuit was sealed.
	ErrCodeSealedStep ConsistencyErrorCode = "SEALED_STEP"

	// ErrCodeTimesliceBusy indicates a circuit appended into the open
	// timeslice whose channels are already in use there.
	ErrCodeTimesliceBusy ConsistencyErrorCode = "TIMESLICE_BUSY"

	// ErrCodeLengthMismatch indicates stabilizer and measurement sequences
	// of different lengths handed to syndrome generation.
	ErrCodeLengthMismatch ConsistencyErrorCode = "LENGTH_MISMATCH"
)

// Error implements the error interface.
func (e *ConsistencyError) Error() string {
	switch {
	case e.Block != "" && e.Timestamp >= 0:
		return fmt.Sprintf("%s: %s (block=%s, timestamp=%d)", e.Code, e.Message, e.Block, e.Timestamp)
	case e.Timestamp >= 0:
		return fmt.Sprintf("%s: %s (timestamp=%d)", e.Code, e.Message, e.Timestamp)
	case e.Block != "":
		return fmt.Sprintf("%s: %s (block=%s)", e.Code, e.Message, e.Block)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// ConsistencyCode extracts the code from a wrapped ConsistencyError, or ""
// when err is not one. Lets tests assert on categories, not message text.
func ConsistencyCode(err error) ConsistencyErrorCode {
	var ce *ConsistencyError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// LookupError reports a reference to something that does not exist: an
// unknown stabilizer or block, an unregistered operation variant, a missing
// channel. It always indicates a caller or applicator defect and is fatal.
type LookupError struct {
	// What names the kind of entity ("block", "stabilizer", "operation",
	// "channel", "compilation").
	What string

	// Key is the identifier that failed to resolve.
	Key string
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	return fmt.Sprintf("unknown %s: %s", e.What, e.Key)
}

// IsLookup returns true if err is (or wraps) a LookupError.
func IsLookup(err error) bool {
	var le *LookupError
	return errors.As(err, &le)
}
