package eka

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Circuit is a hierarchical, tick-scheduled instruction tree over channels.
//
// Ticks is the outer time axis: Ticks[t] holds the sub-circuits that start
// at tick t and run concurrently. A circuit with zero ticks is a leaf
// instruction bound directly to its channels. A sub-circuit of duration d
// started at tick t occupies its channels through tick t+d-1; the empty
// slices in Ticks represent time the circuit is busy inside sub-circuits.
//
// INVARIANT: within one tick, sub-circuit channel sets are pairwise
// disjoint, and no channel is re-used while an earlier sub-circuit on it is
// still running. NewCircuit enforces this.
type Circuit struct {
	Name     string
	Ticks    [][]*Circuit
	Channels []Channel
	Duration int
	ID       string
}

// CircuitOption configures NewCircuit.
type CircuitOption func(*circuitConfig)

type circuitConfig struct {
	channels    []Channel
	hasChannels bool
	duration    int
	hasDuration bool
}

// WithChannels declares the circuit's channel list explicitly. The list
// must be duplicate-free and, for composite circuits, equal (as a set) to
// the union of the sub-circuit channels.
func WithChannels(channels ...Channel) CircuitOption {
	return func(c *circuitConfig) {
		c.channels = channels
		c.hasChannels = true
	}
}

// WithDuration declares the circuit's duration explicitly. For composite
// circuits it must match the derived duration; for leaves it must be >= 1.
func WithDuration(d int) CircuitOption {
	return func(c *circuitConfig) {
		c.duration = d
		c.hasDuration = true
	}
}

// NewGate creates a leaf instruction of duration 1 bound to its channels.
func NewGate(name string, channels ...Channel) *Circuit {
	return &Circuit{
		Name:     name,
		Channels: channels,
		Duration: 1,
		ID:       uuid.NewString(),
	}
}

// NewCircuit builds a composite circuit from a tick tree and validates the
// scheduling invariants. Violations return a StructuralError.
func NewCircuit(name string, ticks [][]*Circuit, opts ...CircuitOption) (*Circuit, error) {
	var cfg circuitConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := validateTiming(name, ticks); err != nil {
		return nil, err
	}

	derived := deriveChannels(ticks)
	channels := derived
	if cfg.hasChannels {
		if err := validateDistinct(name, cfg.channels); err != nil {
			return nil, err
		}
		if len(ticks) > 0 && !sameChannelSet(derived, cfg.channels) {
			return nil, &StructuralError{
				Code:    ErrCodeChannelMismatch,
				Message: "provided channels do not match the channels of the sub-circuits",
				Circuit: name,
				Tick:    -1,
			}
		}
		channels = cfg.channels
	}

	duration := deriveDuration(ticks)
	if cfg.hasDuration {
		if len(ticks) == 0 {
			if cfg.duration < 1 {
				return nil, &StructuralError{
					Code:    ErrCodeDurationMismatch,
					Message: "duration must be a positive integer",
					Circuit: name,
					Tick:    -1,
				}
			}
		} else if cfg.duration != duration {
			return nil, &StructuralError{
				Code:    ErrCodeDurationMismatch,
				Message: fmt.Sprintf("provided duration (%d) does not match the duration of the sub-circuits (%d)", cfg.duration, duration),
				Circuit: name,
				Tick:    -1,
			}
		}
		duration = cfg.duration
	}

	return &Circuit{
		Name:     name,
		Ticks:    ticks,
		Channels: channels,
		Duration: duration,
		ID:       uuid.NewString(),
	}, nil
}

// Sequence builds a composite circuit in which the given circuits run
// strictly one after another: each circuit starts once the previous one has
// had enough ticks to complete.
func Sequence(name string, circuits ...*Circuit) (*Circuit, error) {
	var ticks [][]*Circuit
	for _, c := range circuits {
		ticks = append(ticks, []*Circuit{c})
		for i := 1; i < c.Duration; i++ {
			ticks = append(ticks, nil)
		}
	}
	return NewCircuit(name, ticks)
}

// validateTiming checks that no channel is subject to more than one
// operation in any time slice, accounting for multi-tick sub-circuits.
func validateTiming(name string, ticks [][]*Circuit) error {
	busyUntil := make(map[string]int) // channel id -> last occupied tick
	for t, tick := range ticks {
		for _, gate := range tick {
			if gate == nil {
				return &StructuralError{
					Code:    ErrCodeChannelCollision,
					Message: "nil sub-circuit in tick",
					Circuit: name,
					Tick:    t,
				}
			}
			for _, ch := range gate.Channels {
				if until, ok := busyUntil[ch.ID]; ok && until >= t {
					return &StructuralError{
						Code:    ErrCodeChannelCollision,
						Message: fmt.Sprintf("channel %s is subject to more than one operation", ch.Label),
						Circuit: name,
						Channel: ch.ID,
						Tick:    t,
					}
				}
				busyUntil[ch.ID] = t + gate.Duration - 1
			}
		}
	}
	return nil
}

// deriveChannels collects the union of sub-circuit channels, quantum
// channels first, preserving first-appearance order within each kind.
func deriveChannels(ticks [][]*Circuit) []Channel {
	seen := make(map[string]bool)
	var quantum, classical []Channel
	for _, tick := range ticks {
		for _, gate := range tick {
			for _, ch := range gate.Channels {
				if seen[ch.ID] {
					continue
				}
				seen[ch.ID] = true
				if ch.IsQuantum() {
					quantum = append(quantum, ch)
				} else {
					classical = append(classical, ch)
				}
			}
		}
	}
	return append(quantum, classical...)
}

// deriveDuration computes the end tick of every sub-circuit and returns the
// maximum, never less than the tick count itself.
func deriveDuration(ticks [][]*Circuit) int {
	if len(ticks) == 0 {
		return 1
	}
	duration := len(ticks)
	for t, tick := range ticks {
		for _, gate := range tick {
			if end := t + gate.Duration; end > duration {
				duration = end
			}
		}
	}
	return duration
}

func validateDistinct(name string, channels []Channel) error {
	seen := make(map[string]bool, len(channels))
	for _, ch := range channels {
		if seen[ch.ID] {
			return &StructuralError{
				Code:    ErrCodeChannelMismatch,
				Message: fmt.Sprintf("duplicate channel %s in channel list", ch.Label),
				Circuit: name,
				Channel: ch.ID,
				Tick:    -1,
			}
		}
		seen[ch.ID] = true
	}
	return nil
}

func sameChannelSet(a, b []Channel) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]ChannelKind, len(a))
	for _, ch := range a {
		set[ch.ID] = ch.Kind
	}
	for _, ch := range b {
		kind, ok := set[ch.ID]
		if !ok || kind != ch.Kind {
			return false
		}
	}
	return true
}

// Clone remaps the circuit template onto a fresh channel list of matching
// arity and kind. Channels beyond the provided list are minted. Used to
// reuse syndrome-extraction templates across many block instances.
func (c *Circuit) Clone(channels []Channel) (*Circuit, error) {
	mapping := make(map[string]Channel, len(c.Channels))
	for i, old := range c.Channels {
		if i < len(channels) {
			if old.IsQuantum() != channels[i].IsQuantum() {
				return nil, &StructuralError{
					Code:    ErrCodeBadArity,
					Message: fmt.Sprintf("cannot assign %s channel %s to a %s slot", channels[i].Kind, channels[i].Label, old.Kind),
					Circuit: c.Name,
					Channel: channels[i].ID,
					Tick:    -1,
				}
			}
			mapping[old.ID] = channels[i]
		} else {
			mapping[old.ID] = NewChannel(old.Kind, old.Label)
		}
	}
	if len(channels) > len(c.Channels) {
		return nil, &StructuralError{
			Code:    ErrCodeBadArity,
			Message: fmt.Sprintf("%d channels provided for a %d-channel circuit", len(channels), len(c.Channels)),
			Circuit: c.Name,
			Tick:    -1,
		}
	}
	return c.remap(mapping), nil
}

func (c *Circuit) remap(mapping map[string]Channel) *Circuit {
	channels := make([]Channel, len(c.Channels))
	for i, ch := range c.Channels {
		channels[i] = mapping[ch.ID]
	}
	ticks := make([][]*Circuit, len(c.Ticks))
	for t, tick := range c.Ticks {
		if len(tick) == 0 {
			continue
		}
		ticks[t] = make([]*Circuit, len(tick))
		for i, gate := range tick {
			ticks[t][i] = gate.remap(mapping)
		}
	}
	return &Circuit{
		Name:     c.Name,
		Ticks:    ticks,
		Channels: channels,
		Duration: c.Duration,
		ID:       uuid.NewString(),
	}
}

// IsLeaf reports whether the circuit is a base instruction.
func (c *Circuit) IsLeaf() bool { return len(c.Ticks) == 0 }

// QubitCount returns the number of quantum channels.
func (c *Circuit) QubitCount() int {
	n := 0
	for _, ch := range c.Channels {
		if ch.IsQuantum() {
			n++
		}
	}
	return n
}

// Unroll flattens the circuit into time slices of base gates, preserving
// the tick structure: a gate nested i ticks into a sub-circuit started at
// tick t lands in slice t+i.
func (c *Circuit) Unroll() [][]*Circuit {
	slots := len(c.Ticks)
	if c.Duration > slots {
		slots = c.Duration
	}
	unrolled := make([][]*Circuit, slots)

	type frame struct {
		time int
		circ *Circuit
	}
	stack := []frame{{0, c}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.circ.IsLeaf() {
			unrolled[f.time] = append(unrolled[f.time], f.circ)
			continue
		}
		for t := len(f.circ.Ticks) - 1; t >= 0; t-- {
			tick := f.circ.Ticks[t]
			for i := len(tick) - 1; i >= 0; i-- {
				stack = append(stack, frame{f.time + t, tick[i]})
			}
		}
	}
	return unrolled
}

// Equivalent reports whether two circuits perform the same gate sequence on
// the same wires, ignoring names of composites, channel identities (a
// consistent bijection is enough), and nesting structure.
func (c *Circuit) Equivalent(other *Circuit) bool {
	return c.Diff(other) == nil
}

// String renders the circuit as a per-tick gate summary.
func (c *Circuit) String() string {
	var b strings.Builder
	if c.IsLeaf() {
		fmt.Fprintf(&b, "%s (base gate)", c.Name)
		return b.String()
	}
	fmt.Fprintf(&b, "%s (%d ticks)", c.Name, len(c.Ticks))
	for t, tick := range c.Ticks {
		if len(tick) == 0 {
			continue
		}
		names := make([]string, len(tick))
		for i, gate := range tick {
			names[i] = gate.Name
		}
		fmt.Fprintf(&b, "\n%d: %s", t, strings.Join(names, " "))
	}
	return b.String()
}

// PaddedTimeSequence schedules an ordered sequence of parallel groups.
//
// Each group is a set of circuits that start simultaneously; members may
// have different durations. For each group one tick holding all members is
// emitted, followed by max(duration)-1 empty padding ticks, so the next
// group never starts before every member of the current group has had
// enough ticks to complete. Members keep their own nested schedules:
// serialization is coarse across groups, parallelism stays fine within one.
func PaddedTimeSequence(groups [][]*Circuit) [][]*Circuit {
	var padded [][]*Circuit
	for _, group := range groups {
		padded = append(padded, group)
		timespan := 1
		for _, member := range group {
			if member.Duration > timespan {
				timespan = member.Duration
			}
		}
		for i := 1; i < timespan; i++ {
			padded = append(padded, nil)
		}
	}
	return padded
}

// sortGatesByName orders a time slice for structural comparison.
func sortGatesByName(slice []*Circuit) []*Circuit {
	sorted := make([]*Circuit, len(slice))
	copy(sorted, slice)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return sorted
}
