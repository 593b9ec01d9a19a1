package eka

import "fmt"

// OpKind identifies an operation variant. The set is closed: the
// interpretation driver resolves applicators through a registry keyed on
// OpKind, never by inspecting concrete types.
type OpKind string

const (
	OpMeasureSyndromes OpKind = "measure_syndromes"
	OpMeasureLogical   OpKind = "measure_logical"
	OpApplyLogical     OpKind = "apply_logical"
	OpResetData        OpKind = "reset_data"
	OpResetAncilla     OpKind = "reset_ancilla"
	OpGrow             OpKind = "grow"
	OpShrink           OpKind = "shrink"
	OpMerge            OpKind = "merge"
	OpSplit            OpKind = "split"
)

// Direction indicates where a Grow or Shrink acts on a block.
type Direction string

const (
	Left   Direction = "left"
	Right  Direction = "right"
	Top    Direction = "top"
	Bottom Direction = "bottom"
)

// Opposite returns the opposite direction.
func (d Direction) Opposite() Direction {
	switch d {
	case Left:
		return Right
	case Right:
		return Left
	case Top:
		return Bottom
	default:
		return Top
	}
}

// Orientation indicates the axis of a Merge or Split.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

// Eigenstate is a single-qubit Pauli eigenstate used by reset operations.
type Eigenstate string

const (
	StateZero  Eigenstate = "0"
	StateOne   Eigenstate = "1"
	StatePlus  Eigenstate = "+"
	StateMinus Eigenstate = "-"
)

// Basis returns the Pauli basis the state is an eigenstate of.
func (s Eigenstate) Basis() string {
	switch s {
	case StatePlus, StateMinus:
		return "X"
	default:
		return "Z"
	}
}

// Operation is one logical operation of a QEC program. Implementations are
// the closed set of variants below; Kind() keys applicator resolution, and
// Inputs()/Outputs() name the block labels the operation consumes and
// produces (Outputs defaults to Inputs for in-place operations).
type Operation interface {
	Kind() OpKind
	Inputs() []string
	Outputs() []string
}

// MeasureSyndromes performs Rounds rounds of syndrome measurement on a
// block.
type MeasureSyndromes struct {
	Block  string
	Rounds int
}

func (op MeasureSyndromes) Kind() OpKind      { return OpMeasureSyndromes }
func (op MeasureSyndromes) Inputs() []string  { return []string{op.Block} }
func (op MeasureSyndromes) Outputs() []string { return []string{op.Block} }

// MeasureLogical measures one logical operator of a block transversally.
type MeasureLogical struct {
	Block string
	Basis string // "X" or "Z"
	Qubit int    // logical qubit index within the block
}

func (op MeasureLogical) Kind() OpKind      { return OpMeasureLogical }
func (op MeasureLogical) Inputs() []string  { return []string{op.Block} }
func (op MeasureLogical) Outputs() []string { return []string{op.Block} }

// ApplyLogical applies a logical Pauli operator to a block.
type ApplyLogical struct {
	Block string
	Basis string // "X", "Y" or "Z"
	Qubit int
}

func (op ApplyLogical) Kind() OpKind      { return OpApplyLogical }
func (op ApplyLogical) Inputs() []string  { return []string{op.Block} }
func (op ApplyLogical) Outputs() []string { return []string{op.Block} }

// ResetData resets all data qubits of a block to an eigenstate.
type ResetData struct {
	Block string
	State Eigenstate
}

func (op ResetData) Kind() OpKind      { return OpResetData }
func (op ResetData) Inputs() []string  { return []string{op.Block} }
func (op ResetData) Outputs() []string { return []string{op.Block} }

// ResetAncilla resets all ancilla qubits of a block to an eigenstate.
type ResetAncilla struct {
	Block string
	State Eigenstate
}

func (op ResetAncilla) Kind() OpKind      { return OpResetAncilla }
func (op ResetAncilla) Inputs() []string  { return []string{op.Block} }
func (op ResetAncilla) Outputs() []string { return []string{op.Block} }

// Grow extends a block by Length cells in the given direction. The result
// replaces the input block under a fresh identity.
type Grow struct {
	Block     string
	Direction Direction
	Length    int
}

func (op Grow) Kind() OpKind      { return OpGrow }
func (op Grow) Inputs() []string  { return []string{op.Block} }
func (op Grow) Outputs() []string { return []string{op.Block} }

// Shrink removes Length cells from a block in the given direction.
type Shrink struct {
	Block     string
	Direction Direction
	Length    int
}

func (op Shrink) Kind() OpKind      { return OpShrink }
func (op Shrink) Inputs() []string  { return []string{op.Block} }
func (op Shrink) Outputs() []string { return []string{op.Block} }

// Merge joins two adjacent blocks into one output block.
type Merge struct {
	Blocks      [2]string
	Output      string
	Orientation Orientation
}

func (op Merge) Kind() OpKind      { return OpMerge }
func (op Merge) Inputs() []string  { return []string{op.Blocks[0], op.Blocks[1]} }
func (op Merge) Outputs() []string { return []string{op.Output} }

// Split cuts one block into two at Position along the given orientation.
type Split struct {
	Block       string
	Into        [2]string
	Orientation Orientation
	Position    int
}

func (op Split) Kind() OpKind      { return OpSplit }
func (op Split) Inputs() []string  { return []string{op.Block} }
func (op Split) Outputs() []string { return []string{op.Into[0], op.Into[1]} }

// ValidateOperation performs the static parameter checks shared by all
// construction paths (direct literals and the CUE loader).
func ValidateOperation(op Operation) error {
	bad := func(msg string) error {
		return &StructuralError{
			Code:    ErrCodeBadOperation,
			Message: fmt.Sprintf("%s: %s", op.Kind(), msg),
			Tick:    -1,
		}
	}
	for _, in := range op.Inputs() {
		if in == "" {
			return bad("empty input block name")
		}
	}
	for _, out := range op.Outputs() {
		if out == "" {
			return bad("empty output block name")
		}
	}
	switch v := op.(type) {
	case MeasureSyndromes:
		if v.Rounds < 1 {
			return bad("rounds must be positive")
		}
	case MeasureLogical:
		if v.Basis != "X" && v.Basis != "Z" {
			return bad(fmt.Sprintf("unsupported basis %q", v.Basis))
		}
	case ApplyLogical:
		if v.Basis != "X" && v.Basis != "Y" && v.Basis != "Z" {
			return bad(fmt.Sprintf("unsupported basis %q", v.Basis))
		}
	case ResetData:
		if err := validEigenstate(v.State); err != nil {
			return bad(err.Error())
		}
	case ResetAncilla:
		if err := validEigenstate(v.State); err != nil {
			return bad(err.Error())
		}
	case Grow:
		if v.Length < 1 {
			return bad("length must be positive")
		}
	case Shrink:
		if v.Length < 1 {
			return bad("length must be positive")
		}
	case Split:
		if v.Position < 1 {
			return bad("position must be positive")
		}
	}
	return nil
}

func validEigenstate(s Eigenstate) error {
	switch s {
	case StateZero, StateOne, StatePlus, StateMinus:
		return nil
	}
	return fmt.Errorf("unsupported eigenstate %q", string(s))
}
