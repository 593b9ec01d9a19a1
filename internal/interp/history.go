package interp

import (
	"fmt"
	"iter"
	"sort"
)

// BlockHistory is the versioned timeline of live block identifiers.
//
// It is an append-only sequence of (timestamp, id-set) entries with a
// step-function read model: the set valid at time t is the entry with the
// greatest recorded timestamp <= t.
//
// INVARIANTS:
//   - a block id, once removed, never reappears;
//   - an id is globally unique across every timestamp ever recorded (no
//     resurrection, no reuse) — provenance maps key ancestors by id, so a
//     recycled id would alias two distinct timeline objects.
type BlockHistory struct {
	entries    map[int]map[string]struct{}
	timestamps []int // sorted ascending
	seen       map[string]struct{}
}

// NewBlockHistory records the initial id set at timestamp 0.
func NewBlockHistory(initial []string) *BlockHistory {
	set := make(map[string]struct{}, len(initial))
	seen := make(map[string]struct{}, len(initial))
	for _, id := range initial {
		set[id] = struct{}{}
		seen[id] = struct{}{}
	}
	return &BlockHistory{
		entries:    map[int]map[string]struct{}{0: set},
		timestamps: []int{0},
		seen:       seen,
	}
}

func validTimestamp(t int) error {
	if t < 0 {
		return &ConsistencyError{
			Code:      ErrCodeInvalidTimestamp,
			Message:   fmt.Sprintf("timestamp must be a non-negative integer, got %d", t),
			Timestamp: -1,
		}
	}
	return nil
}

// UpdateBlocks replaces oldIDs with newIDs at the given timestamp and
// propagates the delta to every later recorded entry.
//
// Fails when any old id is absent from the set valid at the nearest
// recorded timestamp <= ts, when any new id was ever present at any
// timestamp (global uniqueness), or when a later recorded entry no longer
// contains the old ids (naming the first inconsistent timestamp). No entry
// is mutated unless the whole update validates.
func (h *BlockHistory) UpdateBlocks(ts int, oldIDs, newIDs []string) error {
	if err := validTimestamp(ts); err != nil {
		return err
	}

	base := h.setAt(ts)
	for _, id := range oldIDs {
		if _, ok := base[id]; !ok {
			return &ConsistencyError{
				Code:      ErrCodeHistoryConflict,
				Message:   fmt.Sprintf("block %s is not live at the update timestamp", id),
				Block:     id,
				Timestamp: ts,
			}
		}
	}
	for _, id := range newIDs {
		if _, ok := h.seen[id]; ok {
			return &ConsistencyError{
				Code:      ErrCodeIDReuse,
				Message:   fmt.Sprintf("block id %s was already recorded in the history", id),
				Block:     id,
				Timestamp: ts,
			}
		}
	}

	// Validate every later recorded entry before mutating anything.
	idx := sort.SearchInts(h.timestamps, ts+1)
	for _, later := range h.timestamps[idx:] {
		entry := h.entries[later]
		for _, id := range oldIDs {
			if _, ok := entry[id]; !ok {
				return &ConsistencyError{
					Code:      ErrCodeHistoryConflict,
					Message:   fmt.Sprintf("block %s already absent at a later timestamp", id),
					Block:     id,
					Timestamp: later,
				}
			}
		}
	}

	apply := func(entry map[string]struct{}) {
		for _, id := range oldIDs {
			delete(entry, id)
		}
		for _, id := range newIDs {
			entry[id] = struct{}{}
		}
	}

	if entry, ok := h.entries[ts]; ok {
		apply(entry)
	} else {
		entry := make(map[string]struct{}, len(base))
		for id := range base {
			entry[id] = struct{}{}
		}
		apply(entry)
		h.entries[ts] = entry
		h.timestamps = append(h.timestamps, 0)
		copy(h.timestamps[idx+1:], h.timestamps[idx:])
		h.timestamps[idx] = ts
		idx++
	}
	for _, later := range h.timestamps[idx:] {
		apply(h.entries[later])
	}
	for _, id := range newIDs {
		h.seen[id] = struct{}{}
	}
	return nil
}

// setAt returns the live entry at the greatest recorded timestamp <= t.
// The history always has an entry at 0, so the lookup cannot miss for
// valid t.
func (h *BlockHistory) setAt(t int) map[string]struct{} {
	idx := sort.SearchInts(h.timestamps, t+1)
	return h.entries[h.timestamps[idx-1]]
}

// BlocksAt returns a copy of the id set valid at time t (step function).
func (h *BlockHistory) BlocksAt(t int) (map[string]struct{}, error) {
	if err := validTimestamp(t); err != nil {
		return nil, err
	}
	entry := h.setAt(t)
	out := make(map[string]struct{}, len(entry))
	for id := range entry {
		out[id] = struct{}{}
	}
	return out, nil
}

// BlocksOverTime returns a lazy, restartable sequence of (timestamp, set)
// pairs for every recorded timestamp in [start, stop).
func (h *BlockHistory) BlocksOverTime(start, stop int) (iter.Seq2[int, map[string]struct{}], error) {
	if err := validTimestamp(start); err != nil {
		return nil, err
	}
	if err := validTimestamp(stop); err != nil {
		return nil, err
	}
	return func(yield func(int, map[string]struct{}) bool) {
		lo := sort.SearchInts(h.timestamps, start)
		hi := sort.SearchInts(h.timestamps, stop)
		for _, ts := range h.timestamps[lo:hi] {
			entry := h.entries[ts]
			out := make(map[string]struct{}, len(entry))
			for id := range entry {
				out[id] = struct{}{}
			}
			if !yield(ts, out) {
				return
			}
		}
	}, nil
}

// MaxTimestampBelow returns the greatest recorded timestamp strictly below
// ref. It fails when none exists: the caller asked for history before the
// beginning of time.
func (h *BlockHistory) MaxTimestampBelow(ref int) (int, error) {
	if err := validTimestamp(ref); err != nil {
		return 0, err
	}
	idx := sort.SearchInts(h.timestamps, ref)
	if idx == 0 {
		return 0, &ConsistencyError{
			Code:      ErrCodeInvalidTimestamp,
			Message:   fmt.Sprintf("no recorded timestamp below %d", ref),
			Timestamp: ref,
		}
	}
	return h.timestamps[idx-1], nil
}

// MinTimestampAbove returns the smallest recorded timestamp strictly above
// ref, with ok=false at the open end of the timeline.
func (h *BlockHistory) MinTimestampAbove(ref int) (int, bool, error) {
	if err := validTimestamp(ref); err != nil {
		return 0, false, err
	}
	idx := sort.SearchInts(h.timestamps, ref+1)
	if idx == len(h.timestamps) {
		return 0, false, nil
	}
	return h.timestamps[idx], true, nil
}

// Timestamps returns a copy of the recorded timestamps in ascending order.
func (h *BlockHistory) Timestamps() []int {
	out := make([]int, len(h.timestamps))
	copy(out, h.timestamps)
	return out
}

// MaxTimestamp returns the latest recorded timestamp.
func (h *BlockHistory) MaxTimestamp() int {
	return h.timestamps[len(h.timestamps)-1]
}

// EverRecorded reports whether the id appeared at any timestamp, including
// ids that have since been removed.
func (h *BlockHistory) EverRecorded(id string) bool {
	_, ok := h.seen[id]
	return ok
}
