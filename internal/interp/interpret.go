package interp

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/qecware/stitch/internal/eka"
)

// Option adjusts driver behaviour.
type Option func(*config)

type config struct {
	debug  bool
	logger *slog.Logger
}

// WithDebug passes the debug flag through to every applicator and turns
// on per-group driver logging.
func WithDebug(debug bool) Option {
	return func(c *config) { c.debug = debug }
}

// WithLogger overrides the driver's logger (slog.Default otherwise).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Interpret runs a program against a registry and returns the sealed
// step: final circuit, syndromes, detectors and observables.
//
// Operations are applied group by group in program order. Members of one
// group run concurrently in circuit time: the first member opens a fresh
// timeslice and the rest merge into it, so their circuits must act on
// disjoint channels. The driver additionally rejects groups whose members
// touch overlapping block sets, since two structural edits of the same
// block in one timeslice have no consistent outcome.
//
// Any applicator error aborts the compilation, annotated with the group
// index, member index and operation kind that failed.
func Interpret(program *eka.Program, registry *Registry, opts ...Option) (*Step, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	step, err := NewStep(program.Blocks)
	if err != nil {
		return nil, err
	}

	resolved, err := resolveAll(program, registry)
	if err != nil {
		return nil, err
	}

	for gi, group := range program.Operations {
		if err := checkDisjointBlocks(group); err != nil {
			return nil, fmt.Errorf("operation group %d: %w", gi, err)
		}
		step.Now = gi + 1
		for oi, op := range group {
			fn := resolved[op.Kind()]
			sameTimeslice := oi > 0
			if err := fn(step, op, sameTimeslice, cfg.debug); err != nil {
				return nil, fmt.Errorf("operation %d.%d (%s): %w", gi, oi, op.Kind(), err)
			}
		}
		if cfg.debug {
			cfg.logger.Debug("applied operation group",
				"program", program.Name,
				"group", gi,
				"operations", len(group),
				"timeslices", step.BufferLen(),
				"syndromes", len(step.Syndromes),
				"detectors", len(step.Detectors))
		}
	}

	if err := step.Seal(); err != nil {
		return nil, err
	}
	cfg.logger.Info("interpretation complete",
		"program", program.Name,
		"syndromes", len(step.Syndromes),
		"detectors", len(step.Detectors),
		"observables", len(step.LogicalObservables()))
	return step, nil
}

// resolveAll looks up every kind the program uses exactly once, before
// any applicator runs.
func resolveAll(program *eka.Program, registry *Registry) (map[eka.OpKind]Applicator, error) {
	resolved := make(map[eka.OpKind]Applicator)
	for _, group := range program.Operations {
		for _, op := range group {
			if _, ok := resolved[op.Kind()]; ok {
				continue
			}
			fn, err := registry.Resolve(op.Kind())
			if err != nil {
				return nil, err
			}
			resolved[op.Kind()] = fn
		}
	}
	return resolved, nil
}

// checkDisjointBlocks rejects a parallel group whose members share any
// input or output block.
func checkDisjointBlocks(group []eka.Operation) error {
	seen := make(map[string]int)
	for oi, op := range group {
		touched := append(append([]string(nil), op.Inputs()...), op.Outputs()...)
		local := make(map[string]bool)
		for _, label := range touched {
			if local[label] {
				continue
			}
			local[label] = true
			if prev, ok := seen[label]; ok {
				return &ConsistencyError{
					Code: ErrCodeOverlappingOps,
					Message: fmt.Sprintf("members %d and %d both act on block %q (kinds %s)",
						prev, oi, label, groupKinds(group)),
					Block:     label,
					Timestamp: -1,
				}
			}
			seen[label] = oi
		}
	}
	return nil
}

func groupKinds(group []eka.Operation) string {
	kinds := make([]string, len(group))
	for i, op := range group {
		kinds[i] = string(op.Kind())
	}
	return strings.Join(kinds, ", ")
}
