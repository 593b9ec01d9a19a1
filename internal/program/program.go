package program

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/repcode"
)

// CompileError reports a problem in a program source, with the CUE
// source position when one is available.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CompileFile reads and compiles a CUE program source file.
func CompileFile(path string) (*eka.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program source: %w", err)
	}
	return compile(string(src), path)
}

// Compile compiles a CUE program source string.
func Compile(source string) (*eka.Program, error) {
	return compile(source, "")
}

func compile(source, filename string) (*eka.Program, error) {
	ctx := cuecontext.New()
	var opts []cue.BuildOption
	if filename != "" {
		opts = append(opts, cue.Filename(filename))
	}
	root := ctx.CompileString(source, opts...)
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := root.LookupPath(cue.ParsePath("program"))
	if !v.Exists() {
		return nil, &CompileError{
			Field:   "program",
			Message: "top-level program struct is required",
			Pos:     root.Pos(),
		}
	}

	name, err := stringField(v, "name")
	if err != nil {
		return nil, err
	}

	blocks, err := parseBlocks(v)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, &CompileError{
			Field:   "block",
			Message: "at least one block is required",
			Pos:     v.Pos(),
		}
	}

	groups, err := parseGroups(v)
	if err != nil {
		return nil, err
	}

	return eka.NewProgram(name, blocks, groups)
}

// parseBlocks builds the initial blocks from their factory parameters,
// in declaration order.
func parseBlocks(v cue.Value) ([]*eka.Block, error) {
	blockVal := v.LookupPath(cue.ParsePath("block"))
	if !blockVal.Exists() {
		return nil, nil
	}

	iter, err := blockVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var blocks []*eka.Block
	for iter.Next() {
		label := iter.Label()
		block, err := parseBlock(label, iter.Value())
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func parseBlock(label string, v cue.Value) (*eka.Block, error) {
	code, err := stringField(v, "code")
	if err != nil {
		return nil, err
	}
	switch code {
	case "repetition":
		check, err := stringField(v, "check")
		if err != nil {
			return nil, err
		}
		distance, err := intField(v, "distance")
		if err != nil {
			return nil, err
		}
		position, err := optionalIntField(v, "position", 0)
		if err != nil {
			return nil, err
		}
		return repcode.New(label, int(distance), check, int(position))
	default:
		return nil, &CompileError{
			Field:   "code",
			Message: fmt.Sprintf("unknown code family %q", code),
			Pos:     v.Pos(),
		}
	}
}

func parseGroups(v cue.Value) ([][]eka.Operation, error) {
	groupsVal := v.LookupPath(cue.ParsePath("groups"))
	if !groupsVal.Exists() {
		return nil, nil
	}

	groupIter, err := groupsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var groups [][]eka.Operation
	for gi := 0; groupIter.Next(); gi++ {
		opIter, err := groupIter.Value().List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		var group []eka.Operation
		for opIter.Next() {
			op, err := parseOperation(opIter.Value())
			if err != nil {
				return nil, fmt.Errorf("groups[%d]: %w", gi, err)
			}
			group = append(group, op)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func parseOperation(v cue.Value) (eka.Operation, error) {
	kind, err := stringField(v, "op")
	if err != nil {
		return nil, err
	}

	switch eka.OpKind(kind) {
	case eka.OpMeasureSyndromes:
		block, err := stringField(v, "block")
		if err != nil {
			return nil, err
		}
		rounds, err := intField(v, "rounds")
		if err != nil {
			return nil, err
		}
		return eka.MeasureSyndromes{Block: block, Rounds: int(rounds)}, nil

	case eka.OpMeasureLogical:
		block, err := stringField(v, "block")
		if err != nil {
			return nil, err
		}
		basis, err := stringField(v, "basis")
		if err != nil {
			return nil, err
		}
		qubit, err := optionalIntField(v, "qubit", 0)
		if err != nil {
			return nil, err
		}
		return eka.MeasureLogical{Block: block, Basis: basis, Qubit: int(qubit)}, nil

	case eka.OpApplyLogical:
		block, err := stringField(v, "block")
		if err != nil {
			return nil, err
		}
		basis, err := stringField(v, "basis")
		if err != nil {
			return nil, err
		}
		qubit, err := optionalIntField(v, "qubit", 0)
		if err != nil {
			return nil, err
		}
		return eka.ApplyLogical{Block: block, Basis: basis, Qubit: int(qubit)}, nil

	case eka.OpResetData:
		block, err := stringField(v, "block")
		if err != nil {
			return nil, err
		}
		state, err := stringField(v, "state")
		if err != nil {
			return nil, err
		}
		return eka.ResetData{Block: block, State: eka.Eigenstate(state)}, nil

	case eka.OpResetAncilla:
		block, err := stringField(v, "block")
		if err != nil {
			return nil, err
		}
		state, err := stringField(v, "state")
		if err != nil {
			return nil, err
		}
		return eka.ResetAncilla{Block: block, State: eka.Eigenstate(state)}, nil

	case eka.OpGrow:
		block, err := stringField(v, "block")
		if err != nil {
			return nil, err
		}
		direction, err := stringField(v, "direction")
		if err != nil {
			return nil, err
		}
		length, err := intField(v, "length")
		if err != nil {
			return nil, err
		}
		return eka.Grow{Block: block, Direction: eka.Direction(direction), Length: int(length)}, nil

	case eka.OpShrink:
		block, err := stringField(v, "block")
		if err != nil {
			return nil, err
		}
		direction, err := stringField(v, "direction")
		if err != nil {
			return nil, err
		}
		length, err := intField(v, "length")
		if err != nil {
			return nil, err
		}
		return eka.Shrink{Block: block, Direction: eka.Direction(direction), Length: int(length)}, nil

	case eka.OpMerge:
		inputs, err := stringPair(v, "blocks")
		if err != nil {
			return nil, err
		}
		output, err := stringField(v, "output")
		if err != nil {
			return nil, err
		}
		orientation, err := stringField(v, "orientation")
		if err != nil {
			return nil, err
		}
		return eka.Merge{Blocks: inputs, Output: output, Orientation: eka.Orientation(orientation)}, nil

	case eka.OpSplit:
		block, err := stringField(v, "block")
		if err != nil {
			return nil, err
		}
		into, err := stringPair(v, "into")
		if err != nil {
			return nil, err
		}
		position, err := intField(v, "position")
		if err != nil {
			return nil, err
		}
		orientation, err := stringField(v, "orientation")
		if err != nil {
			return nil, err
		}
		return eka.Split{
			Block:       block,
			Into:        into,
			Position:    int(position),
			Orientation: eka.Orientation(orientation),
		}, nil

	default:
		return nil, &CompileError{
			Field:   "op",
			Message: fmt.Sprintf("unknown operation %q", kind),
			Pos:     v.Pos(),
		}
	}
}

func stringField(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s is required", field),
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func intField(v cue.Value, field string) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return 0, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s is required", field),
			Pos:     v.Pos(),
		}
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

func optionalIntField(v cue.Value, field string, def int64) (int64, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return def, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return n, nil
}

func stringPair(v cue.Value, field string) ([2]string, error) {
	var pair [2]string
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return pair, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s is required", field),
			Pos:     v.Pos(),
		}
	}
	iter, err := fv.List()
	if err != nil {
		return pair, formatCUEError(err)
	}
	n := 0
	for iter.Next() {
		if n < 2 {
			s, err := iter.Value().String()
			if err != nil {
				return pair, formatCUEError(err)
			}
			pair[n] = s
		}
		n++
	}
	if n != 2 {
		return pair, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("%s must list exactly two block labels, got %d", field, n),
			Pos:     fv.Pos(),
		}
	}
	return pair, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
