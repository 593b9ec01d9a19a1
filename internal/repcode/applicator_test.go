package repcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/interp"
)

func runProgram(t *testing.T, blocks []*eka.Block, groups [][]eka.Operation) *interp.Step {
	t.Helper()
	program, err := eka.NewProgram("test program", blocks, groups)
	require.NoError(t, err)
	registry, err := NewRegistry()
	require.NoError(t, err)
	step, err := interp.Interpret(program, registry)
	require.NoError(t, err)
	return step
}

func TestMeasureSyndromesWithoutPast(t *testing.T) {
	block, err := New("q1", 3, "Z", 0)
	require.NoError(t, err)

	step := runProgram(t, []*eka.Block{block}, [][]eka.Operation{
		{eka.MeasureSyndromes{Block: "q1", Rounds: 3}},
	})

	// 2 checks x 3 rounds.
	require.Len(t, step.Syndromes, 6)
	for i, syn := range step.Syndromes {
		assert.Equal(t, i/2, syn.Round)
		assert.Equal(t, block.ID, syn.Block)
		assert.Len(t, syn.Measurements, 1)
	}

	// The first round has nothing to compare against; rounds 1 and 2 each
	// pair both checks with the previous round.
	require.Len(t, step.Detectors, 4)
	for _, det := range step.Detectors {
		require.Len(t, det.Syndromes, 2)
		assert.Equal(t, det.Syndromes[0].Round+1, det.Syndromes[1].Round)
		assert.Equal(t, det.Syndromes[0].Stabilizer, det.Syndromes[1].Stabilizer)
	}

	// One wrapped circuit in the schedule.
	require.NotNil(t, step.FinalCircuit)
	require.Len(t, step.FinalCircuit.Ticks[0], 1)
	assert.Equal(t, "measure syndromes q1", step.FinalCircuit.Ticks[0][0].Name)
}

func TestResetSeedsDetectorsForFirstRound(t *testing.T) {
	block, err := New("q1", 3, "Z", 0)
	require.NoError(t, err)

	step := runProgram(t, []*eka.Block{block}, [][]eka.Operation{
		{eka.ResetData{Block: "q1", State: eka.StateZero}},
		{eka.MeasureSyndromes{Block: "q1", Rounds: 2}},
	})

	// 2 virtual seeds plus 2 checks x 2 rounds.
	require.Len(t, step.Syndromes, 6)
	assert.True(t, step.Syndromes[0].IsVirtual())
	assert.True(t, step.Syndromes[1].IsVirtual())

	// Every round pairs, including the first one (against the seeds).
	require.Len(t, step.Detectors, 4)
	first := step.Detectors[0]
	assert.True(t, first.Syndromes[0].IsVirtual())
	assert.Equal(t, 0, first.Syndromes[1].Round)
}

func TestResetInComplementaryBasisSeedsNothing(t *testing.T) {
	block, err := New("q1", 3, "Z", 0)
	require.NoError(t, err)

	// |+> preparation says nothing about ZZ checks.
	step := runProgram(t, []*eka.Block{block}, [][]eka.Operation{
		{eka.ResetData{Block: "q1", State: eka.StatePlus}},
		{eka.MeasureSyndromes{Block: "q1", Rounds: 1}},
	})

	require.Len(t, step.Syndromes, 2)
	assert.False(t, step.Syndromes[0].IsVirtual())
	assert.Empty(t, step.Detectors)
}

func TestGrowExtendsChain(t *testing.T) {
	block, err := New("q1", 3, "Z", 5)
	require.NoError(t, err)
	oldShort := block.LogicalZOperators[0]
	oldLong := block.LogicalXOperators[0]

	step := runProgram(t, []*eka.Block{block}, [][]eka.Operation{
		{eka.MeasureSyndromes{Block: "q1", Rounds: 1}},
		{eka.Grow{Block: "q1", Direction: eka.Right, Length: 2}},
		{eka.MeasureSyndromes{Block: "q1", Rounds: 1}},
	})

	grown, err := step.Block("q1")
	require.NoError(t, err)
	assert.NotEqual(t, block.ID, grown.ID, "grow replaces the block identity")
	assert.Len(t, grown.Stabilizers, 4)
	assert.Equal(t, []eka.Coord{
		{5, 0, 0}, {6, 0, 0}, {7, 0, 0}, {8, 0, 0}, {9, 0, 0},
	}, sortedByX(grown.DataQubits()))

	// The spanning logical extends and descends from the old one; the
	// single-qubit logical is carried over untouched.
	newLong := grown.LogicalXOperators[0]
	assert.Equal(t, "XXXXX", newLong.Pauli)
	assert.Equal(t, []string{oldLong.ID}, step.LogicalXEvolution[newLong.ID])
	assert.Same(t, oldShort, grown.LogicalZOperators[0])

	// Surviving checks keep their history: the post-grow round pairs them
	// against the pre-grow round. The two new boundary checks have no past.
	require.Len(t, step.Detectors, 2)
	for _, det := range det2(t, step) {
		assert.Equal(t, 0, det.Syndromes[0].Round)
		assert.Equal(t, 0, det.Syndromes[1].Round, "rounds count per block identity")
	}

	assert.True(t, step.History.EverRecorded(block.ID))
	assert.Equal(t, []string{block.ID}, step.BlockEvolution[grown.ID])
}

func det2(t *testing.T, step *interp.Step) []*interp.Detector {
	t.Helper()
	for _, det := range step.Detectors {
		require.Len(t, det.Syndromes, 2)
	}
	return step.Detectors
}

func TestCaterpillarWorkflow(t *testing.T) {
	// Grow right, measure, shrink back from the left, read out. The
	// surviving logical Z ends at (7,0,0) and owes the two check outcomes
	// it was multiplied with on the way, plus its own readout.
	block, err := New("q1", 3, "Z", 5)
	require.NoError(t, err)

	step := runProgram(t, []*eka.Block{block}, [][]eka.Operation{
		{eka.Grow{Block: "q1", Direction: eka.Right, Length: 2}},
		{eka.MeasureSyndromes{Block: "q1", Rounds: 1}},
		{eka.Shrink{Block: "q1", Direction: eka.Left, Length: 2}},
		{eka.MeasureLogical{Block: "q1", Basis: "Z", Qubit: 0}},
	})

	final, err := step.Block("q1")
	require.NoError(t, err)
	assert.Equal(t, []eka.Coord{{7, 0, 0}, {8, 0, 0}, {9, 0, 0}},
		sortedByX(final.DataQubits()))
	shortZ := final.LogicalZOperators[0]
	assert.Equal(t, []eka.Coord{{7, 0, 0}}, shortZ.DataQubits)

	var zObservable *interp.Observable
	for _, obs := range step.LogicalObservables() {
		if obs.Operator == shortZ.ID {
			zObservable = obs
		}
	}
	require.NotNil(t, zObservable)
	assert.Equal(t, "Z", zObservable.Basis)
	assert.ElementsMatch(t, []interp.Cbit{
		{Bit: "c_(5, 1, 0)", Index: 0},
		{Bit: "c_(6, 1, 0)", Index: 0},
		{Bit: "c_(7, 0, 0)", Index: 0},
	}, zObservable.Measurements)

	// The spanning logical X owes the two data qubits measured out by the
	// shrink.
	newLong := final.LogicalXOperators[0]
	var xObservable *interp.Observable
	for _, obs := range step.LogicalObservables() {
		if obs.Operator == newLong.ID {
			xObservable = obs
		}
	}
	require.NotNil(t, xObservable)
	assert.ElementsMatch(t, []interp.Cbit{
		{Bit: "c_(5, 0, 0)", Index: 0},
		{Bit: "c_(6, 0, 0)", Index: 0},
	}, xObservable.Measurements)
}

func TestMergeAndSplit(t *testing.T) {
	left, err := New("q1", 3, "Z", 0)
	require.NoError(t, err)
	right, err := New("q2", 3, "Z", 4)
	require.NoError(t, err)
	leftLong := left.LogicalXOperators[0]
	rightLong := right.LogicalXOperators[0]

	step := runProgram(t, []*eka.Block{left, right}, [][]eka.Operation{
		{eka.Merge{Blocks: [2]string{"q1", "q2"}, Output: "m", Orientation: eka.Horizontal}},
	})

	merged, err := step.Block("m")
	require.NoError(t, err)
	assert.Len(t, merged.Stabilizers, 6)
	assert.Len(t, merged.DataQubits(), 7)
	_, err = step.Block("q1")
	assert.True(t, interp.IsLookup(err), "inputs are retired")

	mergedLong := merged.LogicalXOperators[0]
	assert.Equal(t, "XXXXXXX", mergedLong.Pauli)
	assert.ElementsMatch(t, []string{leftLong.ID, rightLong.ID},
		step.LogicalXEvolution[mergedLong.ID])
	assert.ElementsMatch(t, []string{left.ID, right.ID},
		step.BlockEvolution[merged.ID])

	// The gap qubit is prepared in |+>.
	require.NotNil(t, step.FinalCircuit)
	gapReset := step.FinalCircuit.Ticks[0][0]
	assert.Equal(t, "merge q1 and q2 into m", gapReset.Name)
	require.Len(t, gapReset.Ticks[0], 1)
	assert.Equal(t, "reset_+", gapReset.Ticks[0][0].Name)
}

func TestMergeAdjacentChainsOpensOwnTimeslice(t *testing.T) {
	left, err := New("q1", 2, "Z", 0)
	require.NoError(t, err)
	right, err := New("q2", 2, "Z", 2)
	require.NoError(t, err)
	spectator, err := New("q3", 2, "Z", 10)
	require.NoError(t, err)

	// The spectator is acted on in the group before the merge and again in
	// parallel with it. The chains sit flush against each other, so the
	// merge has no gap to reset, yet the parallel partner must land in the
	// merge group's timeslice, not the previous group's.
	step := runProgram(t, []*eka.Block{left, right, spectator}, [][]eka.Operation{
		{eka.ApplyLogical{Block: "q3", Basis: "X", Qubit: 0}},
		{
			eka.Merge{Blocks: [2]string{"q1", "q2"}, Output: "m", Orientation: eka.Horizontal},
			eka.ApplyLogical{Block: "q3", Basis: "X", Qubit: 0},
		},
	})

	merged, err := step.Block("m")
	require.NoError(t, err)
	assert.Len(t, merged.DataQubits(), 4)
	assert.Len(t, merged.Stabilizers, 3)

	require.NotNil(t, step.FinalCircuit)
	require.Len(t, step.FinalCircuit.Ticks, 2)
	require.Len(t, step.FinalCircuit.Ticks[0], 1)
	assert.Equal(t, "apply logical X q3", step.FinalCircuit.Ticks[0][0].Name)

	second := step.FinalCircuit.Ticks[1]
	require.Len(t, second, 2)
	marker := second[0]
	assert.Equal(t, "merge q1 and q2 into m", marker.Name)
	assert.Empty(t, marker.Channels, "nothing to reset between adjacent chains")
	assert.Equal(t, "apply logical X q3", second[1].Name)
}

func TestSplitDividesChain(t *testing.T) {
	block, err := New("q1", 7, "Z", 0)
	require.NoError(t, err)
	oldLong := block.LogicalXOperators[0]
	oldShort := block.LogicalZOperators[0]

	step := runProgram(t, []*eka.Block{block}, [][]eka.Operation{
		{eka.Split{Block: "q1", Into: [2]string{"a", "b"},
			Orientation: eka.Horizontal, Position: 3}},
	})

	a, err := step.Block("a")
	require.NoError(t, err)
	b, err := step.Block("b")
	require.NoError(t, err)
	assert.Equal(t, []eka.Coord{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}},
		sortedByX(a.DataQubits()))
	assert.Equal(t, []eka.Coord{{4, 0, 0}, {5, 0, 0}, {6, 0, 0}},
		sortedByX(b.DataQubits()))

	// The short logical at (0,0,0) stays with the left half; the right
	// half gets a fresh one.
	assert.Same(t, oldShort, a.LogicalZOperators[0])
	assert.NotSame(t, oldShort, b.LogicalZOperators[0])
	assert.Equal(t, []eka.Coord{{4, 0, 0}}, b.LogicalZOperators[0].DataQubits)

	// Both spanning logicals descend from the original and owe the cut
	// qubit's outcome.
	cut := interp.Cbit{Bit: "c_(3, 0, 0)", Index: 0}
	for _, half := range []*eka.Block{a, b} {
		long := half.LogicalXOperators[0]
		assert.Equal(t, []string{oldLong.ID}, step.LogicalXEvolution[long.ID])
		var obs *interp.Observable
		for _, o := range step.LogicalObservables() {
			if o.Operator == long.ID {
				obs = o
			}
		}
		require.NotNil(t, obs)
		assert.Contains(t, obs.Measurements, cut)
	}

	assert.ElementsMatch(t, []string{block.ID}, step.BlockEvolution[a.ID])
}

func TestApplyAndMeasureLogical(t *testing.T) {
	block, err := New("q1", 3, "Z", 0)
	require.NoError(t, err)

	step := runProgram(t, []*eka.Block{block}, [][]eka.Operation{
		{eka.ApplyLogical{Block: "q1", Basis: "X", Qubit: 0}},
		{eka.MeasureLogical{Block: "q1", Basis: "X", Qubit: 0}},
	})

	// Transversal X on the spanning logical's three qubits.
	apply := step.FinalCircuit.Ticks[0][0]
	assert.Equal(t, "apply logical X q1", apply.Name)
	require.Len(t, apply.Ticks[0], 3)
	assert.Equal(t, "X", apply.Ticks[0][0].Name)

	obs := step.LogicalObservables()
	require.Len(t, obs, 1)
	assert.Equal(t, block.LogicalXOperators[0].ID, obs[0].Operator)
	assert.ElementsMatch(t, []interp.Cbit{
		{Bit: "c_(0, 0, 0)", Index: 0},
		{Bit: "c_(1, 0, 0)", Index: 0},
		{Bit: "c_(2, 0, 0)", Index: 0},
	}, obs[0].Measurements)
}

func TestShrinkValidation(t *testing.T) {
	block, err := New("q1", 3, "Z", 0)
	require.NoError(t, err)
	program, err := eka.NewProgram("p", []*eka.Block{block}, [][]eka.Operation{
		{eka.Shrink{Block: "q1", Direction: eka.Left, Length: 2}},
	})
	require.NoError(t, err)
	registry, err := NewRegistry()
	require.NoError(t, err)

	_, err = interp.Interpret(program, registry)
	require.Error(t, err)
	assert.Equal(t, eka.ErrCodeBadOperation, eka.StructuralCode(err))
}
