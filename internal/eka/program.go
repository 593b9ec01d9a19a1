package eka

import "fmt"

// Program is a declarative QEC program (an "eka"): the initial blocks and
// the operations to interpret over them.
//
// Operations is a sequence of parallel groups. The outer index is strict
// temporal order; members of one group are logically parallel and must act
// on disjoint block sets, which the interpretation driver enforces.
type Program struct {
	Name       string
	Blocks     []*Block
	Operations [][]Operation
}

// NewProgram validates block labels (unique, non-empty) and operation
// parameters.
func NewProgram(name string, blocks []*Block, operations [][]Operation) (*Program, error) {
	labels := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if labels[b.Label] {
			return nil, &StructuralError{
				Code:    ErrCodeBadOperation,
				Message: fmt.Sprintf("duplicate block label %q", b.Label),
				Tick:    -1,
			}
		}
		labels[b.Label] = true
	}
	for _, group := range operations {
		for _, op := range group {
			if err := ValidateOperation(op); err != nil {
				return nil, err
			}
		}
	}
	return &Program{Name: name, Blocks: blocks, Operations: operations}, nil
}
