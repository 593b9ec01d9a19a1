package repcode

import (
	"fmt"

	"github.com/qecware/stitch/internal/eka"
	"github.com/qecware/stitch/internal/interp"
)

// measureSyndromes measures every check of the block for op.Rounds rounds.
// Each round clones the block's syndrome-extraction templates onto the
// step's persistent channels, runs them back to back, and turns the
// readouts into syndromes and detectors. The per-round timeslices are then
// wrapped into one named circuit so the top-level schedule shows a single
// operation.
func measureSyndromes(step *interp.Step, operation eka.Operation, sameTimeslice, debug bool) error {
	op, ok := operation.(eka.MeasureSyndromes)
	if !ok {
		return badOp("expected a measure_syndromes operation, got %s", operation.Kind())
	}
	block, err := step.Block(op.Block)
	if err != nil {
		return err
	}
	if _, err := analyze(block); err != nil {
		return err
	}

	for r := 0; r < op.Rounds; r++ {
		round := step.Rounds(block.ID)
		clones := make([]*eka.Circuit, len(block.Stabilizers))
		measurements := make([][]interp.Cbit, len(block.Stabilizers))
		for i, stab := range block.Stabilizers {
			clone, cbit, err := cloneExtraction(step, block, stab)
			if err != nil {
				return err
			}
			clones[i] = clone
			measurements[i] = []interp.Cbit{cbit}
		}
		roundCircuit, err := eka.Sequence(
			fmt.Sprintf("measure syndromes %s round %d", block.Label, round), clones...)
		if err != nil {
			return err
		}
		if err := step.AppendCircuit(roundCircuit, false); err != nil {
			return err
		}

		syndromes, err := interp.GenerateSyndromes(step, block, block.Stabilizers, measurements)
		if err != nil {
			return err
		}
		detectors, err := interp.GenerateDetectors(step, block.Stabilizers, syndromes)
		if err != nil {
			return err
		}
		if err := step.AppendSyndromes(syndromes...); err != nil {
			return err
		}
		if err := step.AppendDetectors(detectors...); err != nil {
			return err
		}
	}

	rounds, err := step.PopIntermediate(op.Rounds)
	if err != nil {
		return err
	}
	wrapped, err := eka.NewCircuit(
		fmt.Sprintf("measure syndromes %s", block.Label),
		eka.PaddedTimeSequence(rounds))
	if err != nil {
		return err
	}
	return step.AppendCircuit(wrapped, sameTimeslice)
}

// cloneExtraction instantiates the stabilizer's extraction template on the
// step's channels and allocates the readout bit.
func cloneExtraction(step *interp.Step, block *eka.Block, stab *eka.Stabilizer) (*eka.Circuit, interp.Cbit, error) {
	template, ok := block.CircuitFor(stab.ID)
	if !ok {
		return nil, interp.Cbit{}, badOp("stabilizer %s of block %s has no syndrome circuit", stab.ID, block.Label)
	}
	channels := make([]eka.Channel, 0, len(stab.DataQubits)+2)
	anc, err := step.GetChannel(stab.AncillaQubits[0].String(), eka.Quantum)
	if err != nil {
		return nil, interp.Cbit{}, err
	}
	channels = append(channels, anc)
	for _, q := range stab.DataQubits {
		ch, err := step.GetChannel(q.String(), eka.Quantum)
		if err != nil {
			return nil, interp.Cbit{}, err
		}
		channels = append(channels, ch)
	}
	cbit, err := step.NewCbit("c_" + anc.Label)
	if err != nil {
		return nil, interp.Cbit{}, err
	}
	readout, err := step.GetChannel(cbit.String(), eka.Classical)
	if err != nil {
		return nil, interp.Cbit{}, err
	}
	channels = append(channels, readout)

	clone, err := template.Circuit.Clone(channels)
	if err != nil {
		return nil, interp.Cbit{}, err
	}
	return clone, cbit, nil
}

// measureLogical reads out one logical operator transversally: every data
// qubit in its support is measured in the operator's basis, and the
// resulting bits join the corrections already owed to the operator,
// forming its observable.
func measureLogical(step *interp.Step, operation eka.Operation, sameTimeslice, debug bool) error {
	op, ok := operation.(eka.MeasureLogical)
	if !ok {
		return badOp("expected a measure_logical operation, got %s", operation.Kind())
	}
	block, err := step.Block(op.Block)
	if err != nil {
		return err
	}
	operators := block.LogicalZOperators
	if op.Basis == "X" {
		operators = block.LogicalXOperators
	}
	if op.Qubit < 0 || op.Qubit >= len(operators) {
		return badOp("block %s has no logical qubit %d in basis %s", op.Block, op.Qubit, op.Basis)
	}
	logical := operators[op.Qubit]

	circuit, cbits, err := destructiveMeasurement(step,
		fmt.Sprintf("measure logical %s %s", op.Basis, block.Label),
		logical.DataQubits, op.Basis)
	if err != nil {
		return err
	}
	if err := step.QueueLogicalUpdate(logical.ID, op.Basis, cbits...); err != nil {
		return err
	}
	return step.AppendCircuit(circuit, sameTimeslice)
}

// destructiveMeasurement builds a transversal measurement of the given
// qubits: a Hadamard layer for X-basis readout, then one measurement gate
// per qubit. Returns the circuit and the bits written.
func destructiveMeasurement(step *interp.Step, name string, qubits []eka.Coord, basis string) (*eka.Circuit, []interp.Cbit, error) {
	var hadamards, measurements []*eka.Circuit
	cbits := make([]interp.Cbit, 0, len(qubits))
	for _, q := range qubits {
		ch, err := step.GetChannel(q.String(), eka.Quantum)
		if err != nil {
			return nil, nil, err
		}
		cbit, err := step.NewCbit("c_" + q.String())
		if err != nil {
			return nil, nil, err
		}
		readout, err := step.GetChannel(cbit.String(), eka.Classical)
		if err != nil {
			return nil, nil, err
		}
		if basis == "X" {
			hadamards = append(hadamards, eka.NewGate("H", ch))
		}
		measurements = append(measurements, eka.NewGate("Measurement", ch, readout))
		cbits = append(cbits, cbit)
	}
	ticks := [][]*eka.Circuit{measurements}
	if len(hadamards) > 0 {
		ticks = [][]*eka.Circuit{hadamards, measurements}
	}
	circuit, err := eka.NewCircuit(name, ticks)
	if err != nil {
		return nil, nil, err
	}
	return circuit, cbits, nil
}

// applyLogical applies one logical Pauli transversally. Purely unitary:
// no bits are produced and no block is replaced.
func applyLogical(step *interp.Step, operation eka.Operation, sameTimeslice, debug bool) error {
	op, ok := operation.(eka.ApplyLogical)
	if !ok {
		return badOp("expected an apply_logical operation, got %s", operation.Kind())
	}
	block, err := step.Block(op.Block)
	if err != nil {
		return err
	}
	if op.Qubit < 0 || op.Qubit >= len(block.LogicalXOperators) || op.Qubit >= len(block.LogicalZOperators) {
		return badOp("block %s has no logical qubit %d", op.Block, op.Qubit)
	}

	// Y is applied as the product of the X and Z representatives; qubits
	// in both supports get a Y gate.
	perQubit := make(map[eka.Coord]byte)
	var order []eka.Coord
	record := func(logical *eka.PauliOperator) {
		for i, q := range logical.DataQubits {
			if prev, ok := perQubit[q]; ok {
				if prev != logical.Pauli[i] {
					perQubit[q] = 'Y'
				}
				continue
			}
			perQubit[q] = logical.Pauli[i]
			order = append(order, q)
		}
	}
	if op.Basis == "X" || op.Basis == "Y" {
		record(block.LogicalXOperators[op.Qubit])
	}
	if op.Basis == "Z" || op.Basis == "Y" {
		record(block.LogicalZOperators[op.Qubit])
	}

	gates := make([]*eka.Circuit, 0, len(order))
	for _, q := range order {
		ch, err := step.GetChannel(q.String(), eka.Quantum)
		if err != nil {
			return err
		}
		gates = append(gates, eka.NewGate(string(perQubit[q]), ch))
	}
	circuit, err := eka.NewCircuit(
		fmt.Sprintf("apply logical %s %s", op.Basis, block.Label),
		[][]*eka.Circuit{gates})
	if err != nil {
		return err
	}
	return step.AppendCircuit(circuit, sameTimeslice)
}
