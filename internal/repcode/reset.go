package repcode

import (
	"fmt"

	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/interp"
)

// resetData prepares every data qubit of the block in the given
// eigenstate. Checks stabilizing the reset basis now have a trivially
// known value, so a virtual round -1 syndrome is seeded for each: the
// first real measurement of such a check pairs against it and yields a
// detector immediately.
func resetData(step *interp.Step, operation eka.Operation, sameTimeslice, debug bool) error {
	op, ok := operation.(eka.ResetData)
	if !ok {
		return badOp("expected a reset_data operation, got %s", operation.Kind())
	}
	block, err := step.Block(op.Block)
	if err != nil {
		return err
	}
	circuit, err := resetLayer(step,
		fmt.Sprintf("reset %s data to %s", block.Label, op.State),
		block.DataQubits(), op.State)
	if err != nil {
		return err
	}
	if err := step.AppendCircuit(circuit, sameTimeslice); err != nil {
		return err
	}

	basis := op.State.Basis()
	for _, stab := range block.Stabilizers {
		if stab.PauliOperator.Uniform(basis) {
			if err := step.AppendSyndromes(interp.VirtualSyndrome(stab.ID, block.ID)); err != nil {
				return err
			}
		}
	}
	return nil
}

// resetAncilla prepares every ancilla qubit of the block. No syndromes are
// seeded: ancillas carry no code state between extraction rounds.
func resetAncilla(step *interp.Step, operation eka.Operation, sameTimeslice, debug bool) error {
	op, ok := operation.(eka.ResetAncilla)
	if !ok {
		return badOp("expected a reset_ancilla operation, got %s", operation.Kind())
	}
	block, err := step.Block(op.Block)
	if err != nil {
		return err
	}
	circuit, err := resetLayer(step,
		fmt.Sprintf("reset %s ancillas to %s", block.Label, op.State),
		block.AncillaQubits(), op.State)
	if err != nil {
		return err
	}
	return step.AppendCircuit(circuit, sameTimeslice)
}

// resetLayer builds a single timeslice of reset gates on the given qubits.
func resetLayer(step *interp.Step, name string, qubits []eka.Coord, state eka.Eigenstate) (*eka.Circuit, error) {
	gates := make([]*eka.Circuit, 0, len(qubits))
	for _, q := range qubits {
		ch, err := step.GetChannel(q.String(), eka.Quantum)
		if err != nil {
			return nil, err
		}
		gates = append(gates, eka.NewGate("reset_"+string(state), ch))
	}
	return eka.NewCircuit(name, [][]*eka.Circuit{gates})
}
