package repcode

import (
	"fmt"

	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/interp"
)

// merge joins two collinear chains of the same check type into one block.
// Any gap between them is filled with fresh data qubits reset in the
// complementary basis. The merged chain-spanning logical descends from
// both inputs' spanning logicals and inherits the corrections owed to
// them; the merged single-qubit logical is taken from the left input.
// Checks that existed before keep their history; the bridging checks
// start fresh.
func merge(step *interp.Step, operation eka.Operation, sameTimeslice, debug bool) error {
	op, ok := operation.(eka.Merge)
	if !ok {
		return badOp("expected a merge operation, got %s", operation.Kind())
	}
	if op.Orientation != eka.Horizontal {
		return badOp("repetition chains merge horizontally, not %s", op.Orientation)
	}

	first, err := step.Block(op.Blocks[0])
	if err != nil {
		return err
	}
	second, err := step.Block(op.Blocks[1])
	if err != nil {
		return err
	}
	a, err := analyze(first)
	if err != nil {
		return err
	}
	b, err := analyze(second)
	if err != nil {
		return err
	}
	if a.check != b.check {
		return badOp("cannot merge a %s chain with a %s chain", a.check, b.check)
	}

	left, right := a, b
	if left.leftmost()[0] > right.leftmost()[0] {
		left, right = right, left
	}
	if left.rightmost()[0] >= right.leftmost()[0] {
		return badOp("blocks %s and %s overlap", op.Blocks[0], op.Blocks[1])
	}

	var gap []eka.Coord
	for x := left.rightmost()[0] + 1; x < right.leftmost()[0]; x++ {
		gap = append(gap, eka.Coord{x, 0, 0})
	}

	allData := append(append(append([]eka.Coord(nil), left.data...), gap...), right.data...)
	long, err := longOver(left.check, allData)
	if err != nil {
		return err
	}
	logicalX, logicalZ := operators(left.check, long, left.short())
	merged, err := assemble(op.Output, left.check, allData, logicalX, logicalZ)
	if err != nil {
		return err
	}

	if err := carryStabilizerHistory(step, left.block, merged); err != nil {
		return err
	}
	if err := carryStabilizerHistory(step, right.block, merged); err != nil {
		return err
	}
	if err := step.RecordLogicalEvolution(left.longBasis(), long.ID,
		[]string{left.long().ID, right.long().ID}); err != nil {
		return err
	}
	if err := step.ReplaceBlocks(
		[]*eka.Block{left.block, right.block}, []*eka.Block{merged}); err != nil {
		return err
	}

	name := fmt.Sprintf("merge %s and %s into %s", op.Blocks[0], op.Blocks[1], op.Output)
	if len(gap) == 0 {
		// Adjacent chains need no bridging resets, but the merge must
		// still open its own timeslice: later members of the same
		// parallel group append with sameTimeslice=true and would
		// otherwise land in the previous group's slice.
		marker, err := eka.NewCircuit(name, [][]*eka.Circuit{{}})
		if err != nil {
			return err
		}
		return step.AppendCircuit(marker, sameTimeslice)
	}
	circuit, err := resetLayer(step, name, gap, resetState(left.check))
	if err != nil {
		return err
	}
	return step.AppendCircuit(circuit, sameTimeslice)
}
