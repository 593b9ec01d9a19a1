package eka

import "fmt"

// DiffKind identifies why two circuits are not equivalent.
type DiffKind string

const (
	// DiffTickCount: the unrolled circuits have different lengths.
	DiffTickCount DiffKind = "TICK_COUNT"

	// DiffGateCount: a time slice holds a different number of gates.
	DiffGateCount DiffKind = "GATE_COUNT"

	// DiffGateName: a time slice holds a gate of a different name, i.e.
	// the circuits run different instruction sets.
	DiffGateName DiffKind = "GATE_NAME"

	// DiffChannelMapping: the gates match but no consistent channel
	// bijection maps one circuit's wires onto the other's.
	DiffChannelMapping DiffKind = "CHANNEL_MAPPING"
)

// CircuitDiff describes the first divergence found between two circuits.
// It allows callers to branch on the reason without parsing messages.
type CircuitDiff struct {
	Kind DiffKind

	// Tick is the time slice at which the divergence was found, or -1 for
	// whole-circuit divergences.
	Tick int

	// Left and Right describe the diverging elements (gate names, slice
	// lengths) on either side.
	Left, Right string
}

// Error implements the error interface so a diff can be propagated
// directly as a comparison failure.
func (d *CircuitDiff) Error() string {
	if d.Tick >= 0 {
		return fmt.Sprintf("circuits differ (%s) at tick %d: %s != %s", d.Kind, d.Tick, d.Left, d.Right)
	}
	return fmt.Sprintf("circuits differ (%s): %s != %s", d.Kind, d.Left, d.Right)
}

// Diff compares two circuits structurally and returns nil when they are
// equivalent, or a CircuitDiff naming the first divergence. Both circuits
// are unrolled first; composite names and nesting are ignored. Gate order
// within a time slice does not matter, slice order does, and empty slices
// count.
func (c *Circuit) Diff(other *Circuit) *CircuitDiff {
	seq1 := c.Unroll()
	seq2 := other.Unroll()
	if len(seq1) != len(seq2) {
		return &CircuitDiff{
			Kind:  DiffTickCount,
			Tick:  -1,
			Left:  fmt.Sprintf("%d slices", len(seq1)),
			Right: fmt.Sprintf("%d slices", len(seq2)),
		}
	}

	mapping := make(map[string]string) // left channel id -> right channel id
	for t := range seq1 {
		slice1, slice2 := seq1[t], seq2[t]
		if len(slice1) == 0 && len(slice2) == 0 {
			continue
		}
		if len(slice1) != len(slice2) {
			return &CircuitDiff{
				Kind:  DiffGateCount,
				Tick:  t,
				Left:  fmt.Sprintf("%d gates", len(slice1)),
				Right: fmt.Sprintf("%d gates", len(slice2)),
			}
		}
		sorted1 := sortGatesByName(slice1)
		sorted2 := sortGatesByName(slice2)
		for i := range sorted1 {
			gate1, gate2 := sorted1[i], sorted2[i]
			if gate1.Name != gate2.Name {
				return &CircuitDiff{
					Kind:  DiffGateName,
					Tick:  t,
					Left:  gate1.Name,
					Right: gate2.Name,
				}
			}
			if len(gate1.Channels) != len(gate2.Channels) {
				return &CircuitDiff{
					Kind:  DiffChannelMapping,
					Tick:  t,
					Left:  fmt.Sprintf("%s/%d channels", gate1.Name, len(gate1.Channels)),
					Right: fmt.Sprintf("%s/%d channels", gate2.Name, len(gate2.Channels)),
				}
			}
			for j, ch1 := range gate1.Channels {
				ch2 := gate2.Channels[j]
				if _, ok := mapping[ch1.ID]; !ok {
					mapping[ch1.ID] = ch2.ID
				}
				if mapping[ch1.ID] != ch2.ID {
					return &CircuitDiff{
						Kind:  DiffChannelMapping,
						Tick:  t,
						Left:  ch1.Label,
						Right: ch2.Label,
					}
				}
			}
		}
	}
	return nil
}
