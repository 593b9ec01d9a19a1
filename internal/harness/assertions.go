package harness

import (
	"slices"

	"github.com/qecware/stitch/internal/interp"
)

// checkExpectations applies every expectation set in the scenario to the
// run's final state, recording violations on the result.
func checkExpectations(result *Result, expect Expectations) {
	step := result.Step

	if expect.Syndromes != nil && len(step.Syndromes) != *expect.Syndromes {
		result.AddError("expected %d syndromes, got %d", *expect.Syndromes, len(step.Syndromes))
	}
	if expect.Detectors != nil && len(step.Detectors) != *expect.Detectors {
		result.AddError("expected %d detectors, got %d", *expect.Detectors, len(step.Detectors))
	}
	if expect.Observables != nil {
		got := len(step.LogicalObservables())
		if got != *expect.Observables {
			result.AddError("expected %d observables, got %d", *expect.Observables, got)
		}
	}

	if len(expect.Blocks) > 0 {
		live, err := liveBlockLabels(step)
		if err != nil {
			result.AddError("resolve live blocks: %v", err)
		} else {
			want := slices.Clone(expect.Blocks)
			slices.Sort(want)
			if !slices.Equal(want, live) {
				result.AddError("expected live blocks %v, got %v", want, live)
			}
		}
	}

	if expect.CircuitTicks != nil {
		got := 0
		if step.FinalCircuit != nil {
			got = len(step.FinalCircuit.Ticks)
		}
		if got != *expect.CircuitTicks {
			result.AddError("expected %d circuit ticks, got %d", *expect.CircuitTicks, got)
		}
	}
}

// liveBlockLabels returns the sorted labels of the blocks alive at the
// final recorded timestamp.
func liveBlockLabels(step *interp.Step) ([]string, error) {
	ids, err := step.History.BlocksAt(step.History.MaxTimestamp())
	if err != nil {
		return nil, err
	}
	labels := make([]string, 0, len(ids))
	for id := range ids {
		block, err := step.BlockByID(id)
		if err != nil {
			return nil, err
		}
		labels = append(labels, block.Label)
	}
	slices.Sort(labels)
	return labels, nil
}
