package eka

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quantum(labels ...string) []Channel {
	out := make([]Channel, len(labels))
	for i, l := range labels {
		out[i] = NewChannel(Quantum, l)
	}
	return out
}

func TestNewGate(t *testing.T) {
	ch := quantum("q0", "q1")
	g := NewGate("CX", ch...)
	assert.Equal(t, "CX", g.Name)
	assert.Equal(t, 1, g.Duration)
	assert.True(t, g.IsLeaf())
	assert.Equal(t, ch, g.Channels)
	assert.Equal(t, 2, g.QubitCount())
}

func TestNewCircuitDerivesChannelsAndDuration(t *testing.T) {
	ch := quantum("q0", "q1")
	readout := NewChannel(Classical, "c0")

	c, err := NewCircuit("bell prep", [][]*Circuit{
		{NewGate("H", ch[0])},
		{NewGate("CX", ch[0], ch[1])},
		{NewGate("Measurement", ch[1], readout)},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, c.Duration)
	// Quantum channels first, in order of first appearance, classical after.
	assert.Equal(t, []Channel{ch[0], ch[1], readout}, c.Channels)
}

func TestNewCircuitDurationCoversNestedTails(t *testing.T) {
	ch := quantum("q0", "q1")
	inner, err := NewCircuit("inner", [][]*Circuit{
		{NewGate("H", ch[0])},
		{NewGate("H", ch[0])},
		{NewGate("H", ch[0])},
	})
	require.NoError(t, err)

	// inner starts at tick 1 and runs 3 ticks, so the whole circuit spans 4.
	c, err := NewCircuit("outer", [][]*Circuit{
		{NewGate("X", ch[1])},
		{inner},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, c.Duration)
}

func TestNewCircuitRejectsChannelCollision(t *testing.T) {
	ch := quantum("q0")

	// Two gates on q0 in the same tick.
	_, err := NewCircuit("bad", [][]*Circuit{
		{NewGate("H", ch[0]), NewGate("X", ch[0])},
	})
	require.Error(t, err)
	assert.Equal(t, ErrCodeChannelCollision, StructuralCode(err))

	// A 2-tick sub-circuit on q0 starting at tick 0 still occupies q0 at
	// tick 1.
	long, err := NewCircuit("long", [][]*Circuit{
		{NewGate("H", ch[0])},
		{NewGate("H", ch[0])},
	})
	require.NoError(t, err)
	_, err = NewCircuit("bad", [][]*Circuit{
		{long},
		{NewGate("X", ch[0])},
	})
	require.Error(t, err)
	var serr *StructuralError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ErrCodeChannelCollision, serr.Code)
	assert.Equal(t, 1, serr.Tick)
}

func TestNewCircuitExplicitChannelValidation(t *testing.T) {
	ch := quantum("q0", "q1")
	gate := NewGate("H", ch[0])

	// Declared channels must equal the derived set.
	_, err := NewCircuit("bad", [][]*Circuit{{gate}}, WithChannels(ch[1]))
	assert.Equal(t, ErrCodeChannelMismatch, StructuralCode(err))
	_, err = NewCircuit("bad", [][]*Circuit{{gate}}, WithChannels(ch[0], ch[1]))
	assert.Equal(t, ErrCodeChannelMismatch, StructuralCode(err))

	// But the declared order wins.
	two := NewGate("CX", ch[0], ch[1])
	c, err := NewCircuit("ok", [][]*Circuit{{two}}, WithChannels(ch[1], ch[0]))
	require.NoError(t, err)
	assert.Equal(t, []Channel{ch[1], ch[0]}, c.Channels)

	// Duplicate declarations are rejected.
	_, err = NewCircuit("bad", [][]*Circuit{{gate}}, WithChannels(ch[0], ch[0]))
	assert.Equal(t, ErrCodeChannelMismatch, StructuralCode(err))

	// Declared duration must match the schedule.
	_, err = NewCircuit("bad", [][]*Circuit{{gate}, {NewGate("X", ch[0])}}, WithDuration(1))
	assert.Equal(t, ErrCodeDurationMismatch, StructuralCode(err))

	// Leaves built through NewCircuit may declare a longer duration (an
	// idle or multi-tick primitive).
	idle, err := NewCircuit("idle", nil, WithChannels(ch[0]), WithDuration(3))
	require.NoError(t, err)
	assert.Equal(t, 3, idle.Duration)
	assert.True(t, idle.IsLeaf())
}

func TestSequencePadsDurations(t *testing.T) {
	ch := quantum("q0")
	long, err := NewCircuit("long", [][]*Circuit{
		{NewGate("H", ch[0])},
		{NewGate("H", ch[0])},
		{NewGate("H", ch[0])},
	})
	require.NoError(t, err)

	seq, err := Sequence("seq", long, NewGate("X", ch[0]))
	require.NoError(t, err)
	assert.Equal(t, 4, seq.Duration)
	assert.Len(t, seq.Ticks, 4)
	assert.Empty(t, seq.Ticks[1])
	assert.Empty(t, seq.Ticks[2])
	assert.Equal(t, "X", seq.Ticks[3][0].Name)
}

func TestCloneRemapsChannels(t *testing.T) {
	ch := quantum("q0", "q1")
	readout := NewChannel(Classical, "c0")
	c, err := NewCircuit("extract", [][]*Circuit{
		{NewGate("CX", ch[0], ch[1])},
		{NewGate("Measurement", ch[1], readout)},
	})
	require.NoError(t, err)

	fresh := quantum("p0", "p1")
	freshReadout := NewChannel(Classical, "d0")
	clone, err := c.Clone([]Channel{fresh[0], fresh[1], freshReadout})
	require.NoError(t, err)

	assert.Equal(t, []Channel{fresh[0], fresh[1], freshReadout}, clone.Channels)
	assert.Equal(t, c.Duration, clone.Duration)
	assert.Nil(t, c.Diff(clone), "a clone is equivalent under channel bijection")
	assert.True(t, clone.Ticks[0][0].Channels[0].Same(fresh[0]))

	// Kind mismatch in a slot.
	_, err = c.Clone([]Channel{fresh[0], freshReadout})
	assert.Equal(t, ErrCodeBadArity, StructuralCode(err))

	// Too many channels.
	_, err = c.Clone([]Channel{fresh[0], fresh[1], freshReadout, NewChannel(Classical, "d1")})
	assert.Equal(t, ErrCodeBadArity, StructuralCode(err))

	// A short list mints the rest.
	partial, err := c.Clone([]Channel{fresh[0]})
	require.NoError(t, err)
	assert.True(t, partial.Channels[0].Same(fresh[0]))
	assert.False(t, partial.Channels[1].Same(ch[1]))
}

func TestUnrollFlattensPreservingOffsets(t *testing.T) {
	ch := quantum("q0", "q1")
	inner, err := NewCircuit("inner", [][]*Circuit{
		{NewGate("H", ch[0])},
		{NewGate("CX", ch[0], ch[1])},
	})
	require.NoError(t, err)
	outer, err := NewCircuit("outer", [][]*Circuit{
		{inner},
		nil,
		{NewGate("X", ch[1])},
	})
	require.NoError(t, err)

	slices := outer.Unroll()
	require.Len(t, slices, 3)
	assert.Equal(t, "H", slices[0][0].Name)
	assert.Equal(t, "CX", slices[1][0].Name)
	assert.Equal(t, "X", slices[2][0].Name)

	// A bare gate unrolls to itself.
	g := NewGate("H", ch[0])
	require.Len(t, g.Unroll(), 1)
	assert.Same(t, g, g.Unroll()[0][0])
}

func TestPaddedTimeSequence(t *testing.T) {
	ch := quantum("q0", "q1")
	long, err := NewCircuit("long", [][]*Circuit{
		{NewGate("H", ch[0])},
		{NewGate("H", ch[0])},
		{NewGate("H", ch[0])},
	})
	require.NoError(t, err)
	short := NewGate("X", ch[1])

	g1 := []*Circuit{long, short}
	g2 := []*Circuit{NewGate("Y", ch[0])}
	ticks := PaddedTimeSequence([][]*Circuit{g1, g2})

	// Group 1 occupies its tick plus two pads (max duration 3), group 2
	// follows.
	require.Len(t, ticks, 4)
	assert.Len(t, ticks[0], 2)
	assert.Empty(t, ticks[1])
	assert.Empty(t, ticks[2])
	assert.Equal(t, "Y", ticks[3][0].Name)

	c, err := NewCircuit("final", ticks)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Duration)

	// Padding each group on its own and concatenating gives the same
	// schedule as padding the whole sequence at once.
	assert.Equal(t, ticks, append(
		PaddedTimeSequence([][]*Circuit{g1}),
		PaddedTimeSequence([][]*Circuit{g2})...))
}

func TestDiff(t *testing.T) {
	a := quantum("q0", "q1")
	b := quantum("p0", "p1")

	build := func(ch []Channel, gateName string) *Circuit {
		c, err := NewCircuit("c", [][]*Circuit{
			{NewGate("H", ch[0])},
			{NewGate(gateName, ch[0], ch[1])},
		})
		require.NoError(t, err)
		return c
	}

	left := build(a, "CX")

	// Same structure over different channels: equivalent.
	assert.Nil(t, left.Diff(build(b, "CX")))
	assert.True(t, left.Equivalent(build(b, "CX")))

	// Different gate name.
	d := left.Diff(build(b, "CZ"))
	require.NotNil(t, d)
	assert.Equal(t, DiffGateName, d.Kind)
	assert.Equal(t, 1, d.Tick)

	// Different tick count.
	extra, err := NewCircuit("c", [][]*Circuit{
		{NewGate("H", a[0])},
		{NewGate("CX", a[0], a[1])},
		{NewGate("H", a[0])},
	})
	require.NoError(t, err)
	d = left.Diff(extra)
	require.NotNil(t, d)
	assert.Equal(t, DiffTickCount, d.Kind)

	// Inconsistent channel mapping: q0 must map to one channel everywhere.
	crossed, err := NewCircuit("c", [][]*Circuit{
		{NewGate("H", b[0])},
		{NewGate("CX", b[1], b[0])},
	})
	require.NoError(t, err)
	d = left.Diff(crossed)
	require.NotNil(t, d)
	assert.Equal(t, DiffChannelMapping, d.Kind)
}
