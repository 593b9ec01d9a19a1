package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func TestBlockHistoryStepFunction(t *testing.T) {
	h := NewBlockHistory([]string{"a"})

	got, err := h.BlocksAt(0)
	require.NoError(t, err)
	assert.Equal(t, ids("a"), got)

	// Before any further update the initial set extends forever.
	got, err = h.BlocksAt(99)
	require.NoError(t, err)
	assert.Equal(t, ids("a"), got)

	require.NoError(t, h.UpdateBlocks(3, []string{"a"}, []string{"b", "c"}))

	got, err = h.BlocksAt(2)
	require.NoError(t, err)
	assert.Equal(t, ids("a"), got, "update at 3 must not leak backwards")

	got, err = h.BlocksAt(3)
	require.NoError(t, err)
	assert.Equal(t, ids("b", "c"), got)

	got, err = h.BlocksAt(7)
	require.NoError(t, err)
	assert.Equal(t, ids("b", "c"), got)

	_, err = h.BlocksAt(-1)
	assert.Equal(t, ErrCodeInvalidTimestamp, ConsistencyCode(err))
}

func TestBlockHistoryForwardPropagation(t *testing.T) {
	h := NewBlockHistory([]string{"a", "b"})
	require.NoError(t, h.UpdateBlocks(5, []string{"a"}, []string{"c"}))

	// Retroactive update of b at 2 must flow through the entry at 5.
	require.NoError(t, h.UpdateBlocks(2, []string{"b"}, []string{"d"}))

	got, err := h.BlocksAt(2)
	require.NoError(t, err)
	assert.Equal(t, ids("a", "d"), got)

	got, err = h.BlocksAt(5)
	require.NoError(t, err)
	assert.Equal(t, ids("c", "d"), got)

	assert.Equal(t, []int{0, 2, 5}, h.Timestamps())
}

func TestBlockHistoryConflictLeavesHistoryUntouched(t *testing.T) {
	h := NewBlockHistory([]string{"a", "b"})
	require.NoError(t, h.UpdateBlocks(4, []string{"a"}, []string{"c"}))

	// a was already retired at 4; replacing it at 1 contradicts the
	// recorded future. The error names the inconsistent timestamp and
	// nothing is mutated.
	err := h.UpdateBlocks(1, []string{"a"}, []string{"x"})
	require.Error(t, err)
	assert.Equal(t, ErrCodeHistoryConflict, ConsistencyCode(err))
	var cerr *ConsistencyError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 4, cerr.Timestamp)

	assert.Equal(t, []int{0, 4}, h.Timestamps())
	assert.False(t, h.EverRecorded("x"))
	got, err := h.BlocksAt(1)
	require.NoError(t, err)
	assert.Equal(t, ids("a", "b"), got)
}

func TestBlockHistoryUnknownOldBlock(t *testing.T) {
	h := NewBlockHistory([]string{"a"})
	err := h.UpdateBlocks(2, []string{"ghost"}, []string{"b"})
	assert.Equal(t, ErrCodeHistoryConflict, ConsistencyCode(err))
}

func TestBlockHistoryIDReuse(t *testing.T) {
	h := NewBlockHistory([]string{"a"})
	require.NoError(t, h.UpdateBlocks(1, []string{"a"}, []string{"b"}))

	// a is gone but its id stays burned forever.
	err := h.UpdateBlocks(2, []string{"b"}, []string{"a"})
	assert.Equal(t, ErrCodeIDReuse, ConsistencyCode(err))

	// Same for an id that is still live.
	err = h.UpdateBlocks(2, []string{"b"}, []string{"b"})
	assert.Equal(t, ErrCodeIDReuse, ConsistencyCode(err))

	assert.True(t, h.EverRecorded("a"))
	assert.True(t, h.EverRecorded("b"))
	assert.False(t, h.EverRecorded("c"))
}

func TestBlockHistoryMergeIntoExistingEntry(t *testing.T) {
	h := NewBlockHistory([]string{"a", "b"})
	require.NoError(t, h.UpdateBlocks(3, []string{"a"}, []string{"c"}))
	require.NoError(t, h.UpdateBlocks(3, []string{"b"}, []string{"d"}))

	assert.Equal(t, []int{0, 3}, h.Timestamps(), "same timestamp merges, no duplicate entry")
	got, err := h.BlocksAt(3)
	require.NoError(t, err)
	assert.Equal(t, ids("c", "d"), got)
}

func TestBlockHistoryBlocksOverTime(t *testing.T) {
	h := NewBlockHistory([]string{"a"})
	require.NoError(t, h.UpdateBlocks(2, []string{"a"}, []string{"b"}))
	require.NoError(t, h.UpdateBlocks(6, []string{"b"}, []string{"c"}))

	seq, err := h.BlocksOverTime(1, 6)
	require.NoError(t, err)

	var stamps []int
	for ts, set := range seq {
		stamps = append(stamps, ts)
		if ts == 2 {
			assert.Equal(t, ids("b"), set)
		}
	}
	assert.Equal(t, []int{2}, stamps, "half-open range: 6 excluded, 0 below start")

	// Restartable: a second full iteration sees the same entries.
	seq, err = h.BlocksOverTime(0, 100)
	require.NoError(t, err)
	for range 2 {
		var again []int
		for ts := range seq {
			again = append(again, ts)
		}
		assert.Equal(t, []int{0, 2, 6}, again)
	}

	// Early break must not poison the sequence.
	for ts := range seq {
		_ = ts
		break
	}
}

func TestBlockHistoryNeighborTimestamps(t *testing.T) {
	h := NewBlockHistory([]string{"a"})
	require.NoError(t, h.UpdateBlocks(4, []string{"a"}, []string{"b"}))

	below, err := h.MaxTimestampBelow(4)
	require.NoError(t, err)
	assert.Equal(t, 0, below)

	_, err = h.MaxTimestampBelow(0)
	assert.Equal(t, ErrCodeInvalidTimestamp, ConsistencyCode(err))

	above, ok, err := h.MinTimestampAbove(0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4, above)

	_, ok, err = h.MinTimestampAbove(4)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 4, h.MaxTimestamp())
}
