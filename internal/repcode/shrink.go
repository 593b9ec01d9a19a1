package repcode

import (
	"fmt"

	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/interp"
)

// shrink removes op.Length data qubits from one end of the chain by
// measuring them out in the complementary basis. The measured bits are
// owed to the chain-spanning logical (its support just lost those
// qubits); if the single-qubit logical sat on a removed qubit it is
// shifted onto the nearest surviving one by multiplying in the checks
// between the two positions, whose last measured values are owed to it
// in turn.
func shrink(step *interp.Step, operation eka.Operation, sameTimeslice, debug bool) error {
	op, ok := operation.(eka.Shrink)
	if !ok {
		return badOp("expected a shrink operation, got %s", operation.Kind())
	}
	block, err := step.Block(op.Block)
	if err != nil {
		return err
	}
	old, err := analyze(block)
	if err != nil {
		return err
	}
	if op.Direction != eka.Left && op.Direction != eka.Right {
		return badOp("a repetition chain shrinks from the left or the right, not %s", op.Direction)
	}
	if len(old.data)-op.Length < 2 {
		return badOp("shrinking %s by %d leaves fewer than 2 data qubits", block.Label, op.Length)
	}

	var removed, remaining []eka.Coord
	if op.Direction == eka.Left {
		removed, remaining = old.data[:op.Length], old.data[op.Length:]
	} else {
		cut := len(old.data) - op.Length
		removed, remaining = old.data[cut:], old.data[:cut]
	}

	circuit, cbits, err := destructiveMeasurement(step,
		fmt.Sprintf("shrink %s by %d to the %s", block.Label, op.Length, op.Direction),
		removed, old.longBasis())
	if err != nil {
		return err
	}

	long, err := longOver(old.check, remaining)
	if err != nil {
		return err
	}

	short, shortAncestors, shortOwed, err := relocateShort(step, old, removed, remaining)
	if err != nil {
		return err
	}

	logicalX, logicalZ := operators(old.check, long, short)
	shrunk, err := assemble(block.Label, old.check, remaining, logicalX, logicalZ)
	if err != nil {
		return err
	}

	if err := carryStabilizerHistory(step, block, shrunk); err != nil {
		return err
	}
	if err := step.RecordLogicalEvolution(old.longBasis(), long.ID, []string{old.long().ID}); err != nil {
		return err
	}
	if err := step.QueueLogicalUpdate(long.ID, old.longBasis(), cbits...); err != nil {
		return err
	}
	if short != old.short() {
		if err := step.RecordLogicalEvolution(old.shortBasis(), short.ID, shortAncestors); err != nil {
			return err
		}
		if err := step.QueueLogicalUpdate(short.ID, old.shortBasis(), shortOwed...); err != nil {
			return err
		}
	}
	if err := step.ReplaceBlocks([]*eka.Block{block}, []*eka.Block{shrunk}); err != nil {
		return err
	}
	return step.AppendCircuit(circuit, sameTimeslice)
}

// relocateShort shifts the single-qubit logical off the removed region.
// When its qubit survives, the operator is reused unchanged. Otherwise it
// moves to the nearest surviving qubit; the ancestors are the old
// operator plus every check multiplied in along the way, and the owed
// bits are those checks' last measured outcomes.
func relocateShort(step *interp.Step, old *chain, removed, remaining []eka.Coord) (*eka.PauliOperator, []string, []interp.Cbit, error) {
	short := old.short()
	pos := short.DataQubits[0]
	alive := false
	for _, q := range remaining {
		if q == pos {
			alive = true
			break
		}
	}
	if alive {
		return short, nil, nil, nil
	}

	target := remaining[0]
	if removed[0][0] > remaining[0][0] {
		target = remaining[len(remaining)-1]
	}
	moved, err := eka.NewPauliOperator(old.shortBasis(), []eka.Coord{target})
	if err != nil {
		return nil, nil, nil, err
	}

	lo, hi := pos[0], target[0]
	if lo > hi {
		lo, hi = hi, lo
	}
	ancestors := []string{short.ID}
	var owed []interp.Cbit
	for _, stab := range old.block.Stabilizers {
		within := true
		for _, q := range stab.DataQubits {
			if q[0] < lo || q[0] > hi {
				within = false
				break
			}
		}
		if !within {
			continue
		}
		ancestors = append(ancestors, stab.ID)
		if prev := interp.PrevSyndromes(step, stab.ID); len(prev) > 0 {
			owed = append(owed, prev[len(prev)-1].Measurements...)
		}
	}
	return moved, ancestors, owed, nil
}
