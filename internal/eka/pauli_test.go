package eka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordString(t *testing.T) {
	assert.Equal(t, "(3, 0, 0)", Coord{3, 0, 0}.String())
	assert.Equal(t, "(-1, 2, 5)", Coord{-1, 2, 5}.String())
}

func TestNewPauliOperator(t *testing.T) {
	p, err := NewPauliOperator("XZ", []Coord{{0, 0, 0}, {1, 0, 0}})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Weight())
	assert.False(t, p.Uniform("X"))
	assert.NotEmpty(t, p.ID)

	uniform, err := NewPauliOperator("ZZZ", []Coord{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}})
	require.NoError(t, err)
	assert.True(t, uniform.Uniform("Z"))

	for _, tc := range []struct {
		name   string
		pauli  string
		qubits []Coord
	}{
		{"length mismatch", "XX", []Coord{{0, 0, 0}}},
		{"invalid letter", "XI", []Coord{{0, 0, 0}, {1, 0, 0}}},
		{"duplicate qubit", "XX", []Coord{{0, 0, 0}, {0, 0, 0}}},
		{"empty", "", nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPauliOperator(tc.pauli, tc.qubits)
			require.Error(t, err)
			assert.Equal(t, ErrCodeBadPauli, StructuralCode(err))
		})
	}
}

func TestBlockQubitAccessors(t *testing.T) {
	s1, err := NewStabilizer("ZZ", []Coord{{0, 0, 0}, {1, 0, 0}}, []Coord{{0, 1, 0}})
	require.NoError(t, err)
	s2, err := NewStabilizer("ZZ", []Coord{{1, 0, 0}, {2, 0, 0}}, []Coord{{1, 1, 0}})
	require.NoError(t, err)
	logX, err := NewPauliOperator("XXX", []Coord{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}})
	require.NoError(t, err)
	logZ, err := NewPauliOperator("Z", []Coord{{0, 0, 0}})
	require.NoError(t, err)

	block, err := NewBlock("q1", []*Stabilizer{s1, s2},
		[]*PauliOperator{logX}, []*PauliOperator{logZ}, nil, nil)
	require.NoError(t, err)

	// Deduplicated, first-appearance order.
	assert.Equal(t, []Coord{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}}, block.DataQubits())
	assert.Equal(t, []Coord{{0, 1, 0}, {1, 1, 0}}, block.AncillaQubits())

	assert.Same(t, s2, block.StabilizerByID(s2.ID))
	assert.Nil(t, block.StabilizerByID("nope"))
}

func TestNewBlockValidation(t *testing.T) {
	s, err := NewStabilizer("ZZ", []Coord{{0, 0, 0}, {1, 0, 0}}, []Coord{{0, 1, 0}})
	require.NoError(t, err)
	logical, err := NewPauliOperator("Z", []Coord{{0, 0, 0}})
	require.NoError(t, err)

	_, err = NewBlock("", []*Stabilizer{s}, []*PauliOperator{logical}, []*PauliOperator{logical}, nil, nil)
	assert.Equal(t, ErrCodeBadOperation, StructuralCode(err))

	// A stabilizer mapped to a circuit name that is not in the list.
	_, err = NewBlock("q1", []*Stabilizer{s},
		[]*PauliOperator{logical}, []*PauliOperator{logical},
		nil, map[string]string{s.ID: "ghost"})
	assert.Equal(t, ErrCodeBadOperation, StructuralCode(err))
}

func TestValidateOperation(t *testing.T) {
	valid := []Operation{
		MeasureSyndromes{Block: "q1", Rounds: 3},
		MeasureLogical{Block: "q1", Basis: "Z"},
		ApplyLogical{Block: "q1", Basis: "Y"},
		ResetData{Block: "q1", State: StatePlus},
		ResetAncilla{Block: "q1", State: StateZero},
		Grow{Block: "q1", Direction: Left, Length: 1},
		Shrink{Block: "q1", Direction: Right, Length: 2},
		Merge{Blocks: [2]string{"q1", "q2"}, Output: "m", Orientation: Horizontal},
		Split{Block: "m", Into: [2]string{"q1", "q2"}, Orientation: Horizontal, Position: 2},
	}
	for _, op := range valid {
		assert.NoError(t, ValidateOperation(op), string(op.Kind()))
	}

	invalid := []Operation{
		MeasureSyndromes{Block: "", Rounds: 1},
		MeasureSyndromes{Block: "q1", Rounds: 0},
		MeasureLogical{Block: "q1", Basis: "Y"},
		ApplyLogical{Block: "q1", Basis: "W"},
		ResetData{Block: "q1", State: "2"},
		Grow{Block: "q1", Direction: Left, Length: 0},
		Shrink{Block: "q1", Direction: Left, Length: -1},
		Merge{Blocks: [2]string{"q1", ""}, Output: "m", Orientation: Horizontal},
		Split{Block: "m", Into: [2]string{"q1", "q2"}, Orientation: Horizontal, Position: 0},
	}
	for _, op := range invalid {
		err := ValidateOperation(op)
		require.Error(t, err, string(op.Kind()))
		assert.Equal(t, ErrCodeBadOperation, StructuralCode(err))
	}
}

func TestDirectionAndEigenstate(t *testing.T) {
	assert.Equal(t, Right, Left.Opposite())
	assert.Equal(t, Left, Right.Opposite())
	assert.Equal(t, Bottom, Top.Opposite())
	assert.Equal(t, Top, Bottom.Opposite())

	assert.Equal(t, "Z", StateZero.Basis())
	assert.Equal(t, "Z", StateOne.Basis())
	assert.Equal(t, "X", StatePlus.Basis())
	assert.Equal(t, "X", StateMinus.Basis())
}

func TestNewProgram(t *testing.T) {
	s, err := NewStabilizer("ZZ", []Coord{{0, 0, 0}, {1, 0, 0}}, []Coord{{0, 1, 0}})
	require.NoError(t, err)
	logical, err := NewPauliOperator("Z", []Coord{{0, 0, 0}})
	require.NoError(t, err)
	block := func(label string) *Block {
		b, err := NewBlock(label, []*Stabilizer{s}, []*PauliOperator{logical}, []*PauliOperator{logical}, nil, nil)
		require.NoError(t, err)
		return b
	}

	p, err := NewProgram("demo", []*Block{block("q1")}, [][]Operation{
		{MeasureSyndromes{Block: "q1", Rounds: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "demo", p.Name)

	// Duplicate labels.
	_, err = NewProgram("demo", []*Block{block("q1"), block("q1")}, nil)
	assert.Error(t, err)

	// Invalid operation anywhere fails construction.
	_, err = NewProgram("demo", []*Block{block("q1")}, [][]Operation{
		{MeasureSyndromes{Block: "q1", Rounds: 0}},
	})
	assert.Equal(t, ErrCodeBadOperation, StructuralCode(err))
}
