package repcode

import (
	"fmt"
	"sort"
	"strings"

	"github.com/qecware/stitch/internal/eka"
)

func badOp(format string, args ...any) error {
	return &eka.StructuralError{
		Code:    eka.ErrCodeBadOperation,
		Message: fmt.Sprintf(format, args...),
		Tick:    -1,
	}
}

// complementary returns the opposite Pauli basis.
func complementary(check string) string {
	if check == "X" {
		return "Z"
	}
	return "X"
}

// resetState is the eigenstate fresh data qubits are prepared in when a
// chain grows or merges: the one stabilized by the complementary basis,
// so the extended long logical stays deterministic.
func resetState(check string) eka.Eigenstate {
	if check == "X" {
		return eka.StateZero
	}
	return eka.StatePlus
}

func ancillaFor(data eka.Coord) eka.Coord {
	return eka.Coord{data[0], 1, data[2]}
}

// New creates a distance-d repetition code block with data qubits at
// (position, 0, 0) .. (position+d-1, 0, 0).
func New(label string, distance int, check string, position int) (*eka.Block, error) {
	if distance < 2 {
		return nil, badOp("distance must be at least 2, got %d", distance)
	}
	if check != "X" && check != "Z" {
		return nil, badOp("check type must be X or Z, got %q", check)
	}
	data := make([]eka.Coord, distance)
	for i := range distance {
		data[i] = eka.Coord{position + i, 0, 0}
	}

	long, err := eka.NewPauliOperator(strings.Repeat(complementary(check), distance), data)
	if err != nil {
		return nil, err
	}
	short, err := eka.NewPauliOperator(check, []eka.Coord{data[0]})
	if err != nil {
		return nil, err
	}
	logicalX, logicalZ := []*eka.PauliOperator{long}, []*eka.PauliOperator{short}
	if check == "X" {
		logicalX, logicalZ = []*eka.PauliOperator{short}, []*eka.PauliOperator{long}
	}
	return assemble(label, check, data, logicalX, logicalZ)
}

// assemble builds a repetition-code block over the given data qubits:
// one weight-2 check per adjacent pair, with its ancilla at (x, 1, 0),
// and a syndrome-extraction template per check.
func assemble(label, check string, data []eka.Coord, logicalX, logicalZ []*eka.PauliOperator) (*eka.Block, error) {
	data = sortedByX(data)
	stabilizers := make([]*eka.Stabilizer, 0, len(data)-1)
	templates := make([]*eka.SyndromeCircuit, 0, len(data)-1)
	mapping := make(map[string]string, len(data)-1)
	for i := 0; i+1 < len(data); i++ {
		stab, err := eka.NewStabilizer(check+check,
			[]eka.Coord{data[i], data[i+1]},
			[]eka.Coord{ancillaFor(data[i])})
		if err != nil {
			return nil, err
		}
		tmpl, err := extractionTemplate(stab, check)
		if err != nil {
			return nil, err
		}
		stabilizers = append(stabilizers, stab)
		templates = append(templates, tmpl)
		mapping[stab.ID] = tmpl.Name
	}
	return eka.NewBlock(label, stabilizers, logicalX, logicalZ, templates, mapping)
}

// extractionTemplate builds the syndrome-extraction circuit for one
// weight-2 check: reset the ancilla, entangle it with each data qubit in
// turn (Hadamard-conjugated for X checks), then read it out. The
// template's channels are placeholders; the measurement applicator clones
// it onto the block's concrete channels, ancilla first, then data in
// stabilizer order, then the readout bit.
func extractionTemplate(stab *eka.Stabilizer, check string) (*eka.SyndromeCircuit, error) {
	anc := eka.NewChannel(eka.Quantum, stab.AncillaQubits[0].String())
	readout := eka.NewChannel(eka.Classical, "c_"+anc.Label+"_0")

	entangle := "CX"
	if check == "X" {
		entangle = "CZ"
	}

	ticks := [][]*eka.Circuit{{eka.NewGate("reset_0", anc)}}
	if check == "X" {
		ticks = append(ticks, []*eka.Circuit{eka.NewGate("H", anc)})
	}
	for _, q := range stab.DataQubits {
		d := eka.NewChannel(eka.Quantum, q.String())
		ticks = append(ticks, []*eka.Circuit{eka.NewGate(entangle, d, anc)})
	}
	if check == "X" {
		ticks = append(ticks, []*eka.Circuit{eka.NewGate("H", anc)})
	}
	ticks = append(ticks, []*eka.Circuit{eka.NewGate("Measurement", anc, readout)})

	name := fmt.Sprintf("syndrome extraction %s at %s", stab.Pauli, anc.Label)
	circ, err := eka.NewCircuit(name, ticks)
	if err != nil {
		return nil, err
	}
	return &eka.SyndromeCircuit{Name: name, Pauli: stab.Pauli, Circuit: circ}, nil
}

// chain is the geometric reading of a repetition-code block: its check
// basis and its data qubits ordered along the line.
type chain struct {
	block *eka.Block
	check string
	data  []eka.Coord
}

// analyze recovers chain geometry from a block. It rejects blocks that are
// not repetition chains, since every applicator in this package reasons in
// terms of the 1D layout.
func analyze(block *eka.Block) (*chain, error) {
	if len(block.Stabilizers) == 0 {
		return nil, badOp("block %s has no stabilizers", block.Label)
	}
	check := string(block.Stabilizers[0].Pauli[0])
	for _, stab := range block.Stabilizers {
		if len(stab.DataQubits) != 2 || !stab.PauliOperator.Uniform(check) {
			return nil, badOp("block %s is not a repetition chain", block.Label)
		}
	}
	return &chain{
		block: block,
		check: check,
		data:  sortedByX(block.DataQubits()),
	}, nil
}

func (c *chain) leftmost() eka.Coord  { return c.data[0] }
func (c *chain) rightmost() eka.Coord { return c.data[len(c.data)-1] }

// long returns the chain-spanning logical operator (complementary basis)
// and short the single-qubit one (check basis).
func (c *chain) long() *eka.PauliOperator {
	if c.check == "X" {
		return c.block.LogicalZOperators[0]
	}
	return c.block.LogicalXOperators[0]
}

func (c *chain) short() *eka.PauliOperator {
	if c.check == "X" {
		return c.block.LogicalXOperators[0]
	}
	return c.block.LogicalZOperators[0]
}

func (c *chain) longBasis() string  { return complementary(c.check) }
func (c *chain) shortBasis() string { return c.check }

// operators packages a long/short pair into the (logicalX, logicalZ)
// slices NewBlock expects for this check type.
func operators(check string, long, short *eka.PauliOperator) (logicalX, logicalZ []*eka.PauliOperator) {
	if check == "X" {
		return []*eka.PauliOperator{short}, []*eka.PauliOperator{long}
	}
	return []*eka.PauliOperator{long}, []*eka.PauliOperator{short}
}

// longOver builds the chain-spanning logical for the given data qubits.
func longOver(check string, data []eka.Coord) (*eka.PauliOperator, error) {
	return eka.NewPauliOperator(strings.Repeat(complementary(check), len(data)), sortedByX(data))
}

func sortedByX(data []eka.Coord) []eka.Coord {
	out := append([]eka.Coord(nil), data...)
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

func coordKey(qubits []eka.Coord) string {
	parts := make([]string, len(qubits))
	for i, q := range sortedByX(qubits) {
		parts[i] = q.String()
	}
	return strings.Join(parts, "|")
}
