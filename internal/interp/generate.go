package interp

import (
	"fmt"

	"github.com/qecware/stitch/internal/eka"
)

// GenerateSyndromes turns one round of raw stabilizer measurements into
// syndromes. stabilizers and measurements are zipped strictly: entry i of
// measurements holds the classical slots produced for stabilizer i this
// round. Each syndrome claims (exactly once) any corrections queued for
// its stabilizer, and carries the block's current round counter; the
// counter advances by one for the whole call.
//
// The returned syndromes are not appended: the caller decides when they
// land on the step.
func GenerateSyndromes(step *Step, block *eka.Block, stabilizers []*eka.Stabilizer, measurements [][]Cbit) ([]*Syndrome, error) {
	if err := step.mutable(); err != nil {
		return nil, err
	}
	if len(stabilizers) != len(measurements) {
		return nil, &ConsistencyError{
			Code: ErrCodeLengthMismatch,
			Message: fmt.Sprintf("%d stabilizers measured but %d measurement groups supplied",
				len(stabilizers), len(measurements)),
			Block:     block.Label,
			Timestamp: -1,
		}
	}
	round := step.blockRounds[block.ID]
	syndromes := make([]*Syndrome, len(stabilizers))
	for i, stab := range stabilizers {
		syndromes[i] = NewSyndrome(stab.ID, measurements[i], block.ID, round, step.takeStabilizerUpdates(stab.ID))
	}
	step.blockRounds[block.ID] = round + 1
	return syndromes, nil
}

// PrevSyndromes resolves the syndromes a fresh measurement of a stabilizer
// compares against:
//
//   - the most recently appended syndrome for that exact stabilizer, if
//     one exists;
//   - otherwise the concatenated previous syndromes of the stabilizer's
//     recorded ancestors, resolved recursively;
//   - otherwise nothing (the stabilizer has no measured past, so its first
//     outcome produces no detector).
func PrevSyndromes(step *Step, stabilizerID string) []*Syndrome {
	return prevSyndromes(step, stabilizerID, make(map[string]bool))
}

func prevSyndromes(step *Step, stabilizerID string, visiting map[string]bool) []*Syndrome {
	if visiting[stabilizerID] {
		return nil
	}
	visiting[stabilizerID] = true
	// Last-appended wins when a stabilizer was measured more than once.
	for i := len(step.Syndromes) - 1; i >= 0; i-- {
		if step.Syndromes[i].Stabilizer == stabilizerID {
			return []*Syndrome{step.Syndromes[i]}
		}
	}
	var merged []*Syndrome
	for _, ancestor := range step.StabilizerEvolution[stabilizerID] {
		merged = append(merged, prevSyndromes(step, ancestor, visiting)...)
	}
	return merged
}

// GenerateDetectors pairs freshly generated syndromes with their
// stabilizers' previous syndromes and emits one detector per chain of
// length at least two. A stabilizer whose history resolves to a single
// merged ancestor yields the familiar two-syndrome detector; one formed
// from k ancestors yields a detector spanning all k prior syndromes plus
// the new one.
//
// Like GenerateSyndromes, the result is returned rather than appended.
func GenerateDetectors(step *Step, stabilizers []*eka.Stabilizer, newSyndromes []*Syndrome) ([]*Detector, error) {
	chains := make(map[string][]*Syndrome, len(stabilizers))
	order := make([]string, len(stabilizers))
	for i, stab := range stabilizers {
		chains[stab.ID] = PrevSyndromes(step, stab.ID)
		order[i] = stab.ID
	}
	for _, syn := range newSyndromes {
		if _, ok := chains[syn.Stabilizer]; !ok {
			return nil, &LookupError{What: "stabilizer", Key: syn.Stabilizer}
		}
		chains[syn.Stabilizer] = append(chains[syn.Stabilizer], syn)
	}
	var detectors []*Detector
	for _, id := range order {
		if chain := chains[id]; len(chain) > 1 {
			detectors = append(detectors, NewDetector(chain...))
		}
	}
	return detectors, nil
}
