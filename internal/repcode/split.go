package repcode

import (
	"fmt"

	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/interp"
)

// split cuts one chain into two by measuring out the data qubit at
// op.Position (an index along the chain) in the complementary basis. Both
// halves' spanning logicals descend from the original one and owe its
// accumulated corrections plus the cut-qubit bit; the single-qubit
// logical stays with the half that contains its support, and the other
// half gets a fresh one at its boundary.
func split(step *interp.Step, operation eka.Operation, sameTimeslice, debug bool) error {
	op, ok := operation.(eka.Split)
	if !ok {
		return badOp("expected a split operation, got %s", operation.Kind())
	}
	if op.Orientation != eka.Horizontal {
		return badOp("repetition chains split horizontally, not %s", op.Orientation)
	}
	block, err := step.Block(op.Block)
	if err != nil {
		return err
	}
	old, err := analyze(block)
	if err != nil {
		return err
	}
	if op.Position < 2 || op.Position > len(old.data)-3 {
		return badOp("cannot split %s at %d: both halves need at least 2 data qubits",
			block.Label, op.Position)
	}

	cut := old.data[op.Position]
	leftData := old.data[:op.Position]
	rightData := old.data[op.Position+1:]

	circuit, cbits, err := destructiveMeasurement(step,
		fmt.Sprintf("split %s at %d", block.Label, op.Position),
		[]eka.Coord{cut}, old.longBasis())
	if err != nil {
		return err
	}

	halves := make([]*eka.Block, 2)
	longs := make([]*eka.PauliOperator, 2)
	shortPos := old.short().DataQubits[0]
	for i, data := range [][]eka.Coord{leftData, rightData} {
		long, err := longOver(old.check, data)
		if err != nil {
			return err
		}
		short := old.short()
		if !contains(data, shortPos) {
			short, err = eka.NewPauliOperator(old.shortBasis(), []eka.Coord{data[0]})
			if err != nil {
				return err
			}
		}
		logicalX, logicalZ := operators(old.check, long, short)
		half, err := assemble(op.Into[i], old.check, data, logicalX, logicalZ)
		if err != nil {
			return err
		}
		halves[i], longs[i] = half, long
	}

	if err := carryStabilizerHistory(step, block, halves[0]); err != nil {
		return err
	}
	if err := carryStabilizerHistory(step, block, halves[1]); err != nil {
		return err
	}
	// The first recorded half claims the corrections already owed to the
	// original spanning logical; both owe the cut-qubit outcome.
	for _, long := range longs {
		if err := step.RecordLogicalEvolution(old.longBasis(), long.ID,
			[]string{old.long().ID}); err != nil {
			return err
		}
		if err := step.QueueLogicalUpdate(long.ID, old.longBasis(), cbits...); err != nil {
			return err
		}
	}
	if err := step.ReplaceBlocks([]*eka.Block{block}, halves); err != nil {
		return err
	}
	return step.AppendCircuit(circuit, sameTimeslice)
}

func contains(data []eka.Coord, q eka.Coord) bool {
	for _, d := range data {
		if d == q {
			return true
		}
	}
	return false
}
