package repcode

import (
	"fmt"

	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/interp"
)

// grow extends a chain by op.Length fresh data qubits on one end. The new
// qubits are reset in the complementary basis, so the chain-spanning
// logical extends deterministically; the single-qubit logical is
// untouched. The block is replaced wholesale, checks that survive keep
// their measured past through stabilizer evolution, and the brand-new
// boundary checks start with no history (their first outcome is random
// and produces no detector).
func grow(step *interp.Step, operation eka.Operation, sameTimeslice, debug bool) error {
	op, ok := operation.(eka.Grow)
	if !ok {
		return badOp("expected a grow operation, got %s", operation.Kind())
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
		return badOp("a repetition chain grows left or right, not %s", op.Direction)
	}

	fresh := make([]eka.Coord, op.Length)
	for i := range op.Length {
		if op.Direction == eka.Left {
			fresh[i] = eka.Coord{old.leftmost()[0] - 1 - i, 0, 0}
		} else {
			fresh[i] = eka.Coord{old.rightmost()[0] + 1 + i, 0, 0}
		}
	}

	circuit, err := resetLayer(step,
		fmt.Sprintf("grow %s by %d to the %s", block.Label, op.Length, op.Direction),
		fresh, resetState(old.check))
	if err != nil {
		return err
	}

	allData := append(append([]eka.Coord(nil), old.data...), fresh...)
	long, err := longOver(old.check, allData)
	if err != nil {
		return err
	}
	logicalX, logicalZ := operators(old.check, long, old.short())
	grown, err := assemble(block.Label, old.check, allData, logicalX, logicalZ)
	if err != nil {
		return err
	}

	if err := carryStabilizerHistory(step, block, grown); err != nil {
		return err
	}
	if err := step.RecordLogicalEvolution(old.longBasis(), long.ID, []string{old.long().ID}); err != nil {
		return err
	}
	if err := step.ReplaceBlocks([]*eka.Block{block}, []*eka.Block{grown}); err != nil {
		return err
	}
	return step.AppendCircuit(circuit, sameTimeslice)
}

// carryStabilizerHistory records single-ancestor evolution for every
// stabilizer of the new block whose support matches one in the old block,
// keeping detector chains alive across the replacement.
func carryStabilizerHistory(step *interp.Step, old, new_ *eka.Block) error {
	bySupport := make(map[string]*eka.Stabilizer, len(old.Stabilizers))
	for _, stab := range old.Stabilizers {
		bySupport[coordKey(stab.DataQubits)] = stab
	}
	for _, stab := range new_.Stabilizers {
		if prev, ok := bySupport[coordKey(stab.DataQubits)]; ok {
			if err := step.RecordStabilizerEvolution(stab.ID, []string{prev.ID}); err != nil {
				return err
			}
		}
	}
	return nil
}
