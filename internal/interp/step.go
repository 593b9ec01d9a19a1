package interp

import (
	"fmt"

	"github.com/qecware/stitch/internal/eka"
)

// Step is the mutable compiler state of one compilation: the block-history
// timeline, the evolution maps, the pending-correction accumulators, the
// decoding graph built so far and the uncommitted circuit buffer.
//
// A Step is created once per compilation, mutated in place by applicators
// through the whole pipeline, and sealed when all operations are
// exhausted. After Seal, every mutator fails with ErrCodeSealedStep and
// FinalCircuit/Syndromes/Detectors are read-only for downstream consumers.
//
// The driver is the sole writer at all times; applicators must treat the
// step as exclusively owned for the duration of their call and must not
// retain references across calls.
type Step struct {
	History *BlockHistory

	// Evolution maps record provenance after structural operations:
	// new id -> ancestor ids.
	BlockEvolution      map[string][]string
	StabilizerEvolution map[string][]string
	LogicalXEvolution   map[string][]string
	LogicalZEvolution   map[string][]string

	// Syndromes and Detectors are append-only.
	Syndromes []*Syndrome
	Detectors []*Detector

	// FinalCircuit is nil until Seal.
	FinalCircuit *eka.Circuit

	// Now is the current history timestamp, advanced by the driver once
	// per outer operation group. Structural applicators record their
	// block replacements at this timestamp.
	Now int

	// Pending-correction accumulators. Stabilizer entries are consumed
	// exactly once by syndrome generation; logical entries accumulate
	// into observables.
	stabilizerUpdates map[string][]Cbit
	logicalUpdates    []*Observable
	logicalIndex      map[string]*Observable

	blockRounds map[string]int
	buffer      [][]*eka.Circuit

	blocks      map[string]*eka.Block      // every block ever registered, by id
	stabilizers map[string]*eka.Stabilizer // every stabilizer ever registered, by id
	channels    map[string]eka.Channel     // persistent channel per label
	cbitCounter map[string]int

	sealed bool
}

// NewStep builds the initial step for a set of blocks, recording them in
// the history at timestamp 0.
func NewStep(blocks []*eka.Block) (*Step, error) {
	s := &Step{
		BlockEvolution:      make(map[string][]string),
		StabilizerEvolution: make(map[string][]string),
		LogicalXEvolution:   make(map[string][]string),
		LogicalZEvolution:   make(map[string][]string),
		stabilizerUpdates:   make(map[string][]Cbit),
		logicalIndex:        make(map[string]*Observable),
		blockRounds:         make(map[string]int),
		blocks:              make(map[string]*eka.Block),
		stabilizers:         make(map[string]*eka.Stabilizer),
		channels:            make(map[string]eka.Channel),
		cbitCounter:         make(map[string]int),
	}
	ids := make([]string, len(blocks))
	for i, b := range blocks {
		ids[i] = b.ID
		s.register(b)
	}
	s.History = NewBlockHistory(ids)
	return s, nil
}

func (s *Step) register(b *eka.Block) {
	s.blocks[b.ID] = b
	for _, stab := range b.Stabilizers {
		s.stabilizers[stab.ID] = stab
	}
}

func (s *Step) mutable() error {
	if s.sealed {
		return &ConsistencyError{
			Code:      ErrCodeSealedStep,
			Message:   "cannot change a sealed interpretation step",
			Timestamp: -1,
		}
	}
	return nil
}

// Block resolves a live block by label. Only blocks live at the latest
// history timestamp are candidates: structural operations retire a label's
// old identity when they record the replacement.
func (s *Step) Block(label string) (*eka.Block, error) {
	live, err := s.History.BlocksAt(s.History.MaxTimestamp())
	if err != nil {
		return nil, err
	}
	for id := range live {
		if b, ok := s.blocks[id]; ok && b.Label == label {
			return b, nil
		}
	}
	return nil, &LookupError{What: "block", Key: label}
}

// BlockByID resolves any block ever registered, live or retired.
func (s *Step) BlockByID(id string) (*eka.Block, error) {
	if b, ok := s.blocks[id]; ok {
		return b, nil
	}
	return nil, &LookupError{What: "block", Key: id}
}

// Stabilizer resolves a stabilizer by id across all registered blocks.
func (s *Step) Stabilizer(id string) (*eka.Stabilizer, error) {
	if stab, ok := s.stabilizers[id]; ok {
		return stab, nil
	}
	return nil, &LookupError{What: "stabilizer", Key: id}
}

// GetChannel returns the persistent channel for a physical coordinate
// label, minting it on first use. The mapping is deterministic and
// idempotent for the whole compilation.
func (s *Step) GetChannel(label string, kind eka.ChannelKind) (eka.Channel, error) {
	if err := s.mutable(); err != nil {
		return eka.Channel{}, err
	}
	if ch, ok := s.channels[label]; ok {
		return ch, nil
	}
	ch := eka.NewChannel(kind, label)
	s.channels[label] = ch
	return ch, nil
}

// Channels returns the label -> channel allocation map (shared storage;
// callers must not mutate).
func (s *Step) Channels() map[string]eka.Channel { return s.channels }

// NewCbit allocates the next measurement slot in a classical register.
func (s *Step) NewCbit(register string) (Cbit, error) {
	if err := s.mutable(); err != nil {
		return Cbit{}, err
	}
	idx := s.cbitCounter[register]
	s.cbitCounter[register] = idx + 1
	return Cbit{Bit: register, Index: idx}, nil
}

// AppendCircuit merges a circuit into the currently open timeslice
// (sameTimeslice=true, used when several parallel group members
// contribute) or opens a new timeslice.
func (s *Step) AppendCircuit(c *eka.Circuit, sameTimeslice bool) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if !sameTimeslice || len(s.buffer) == 0 {
		s.buffer = append(s.buffer, []*eka.Circuit{c})
		return nil
	}
	last := s.buffer[len(s.buffer)-1]
	busy := make(map[string]bool)
	for _, member := range last {
		for _, ch := range member.Channels {
			busy[ch.ID] = true
		}
	}
	for _, ch := range c.Channels {
		if busy[ch.ID] {
			return &ConsistencyError{
				Code:      ErrCodeTimesliceBusy,
				Message:   fmt.Sprintf("channel %s is already in use in the current timeslice", ch.Label),
				Timestamp: -1,
			}
		}
	}
	s.buffer[len(s.buffer)-1] = append(last, c)
	return nil
}

// PopIntermediate removes and returns the last n buffered timeslices.
// Composite applicators use it to wrap several generated timeslices into
// one named sub-circuit before re-appending, hiding internal rounds from
// the top-level schedule.
func (s *Step) PopIntermediate(n int) ([][]*eka.Circuit, error) {
	if err := s.mutable(); err != nil {
		return nil, err
	}
	if n < 0 || n > len(s.buffer) {
		return nil, &ConsistencyError{
			Code:      ErrCodeLengthMismatch,
			Message:   fmt.Sprintf("cannot pop %d timeslices from a buffer of %d", n, len(s.buffer)),
			Timestamp: -1,
		}
	}
	// Copy the window: the caller owns the result, and a later append
	// would otherwise overwrite the popped slots in the shared backing
	// array.
	popped := make([][]*eka.Circuit, n)
	copy(popped, s.buffer[len(s.buffer)-n:])
	s.buffer = s.buffer[:len(s.buffer)-n]
	return popped, nil
}

// BufferLen returns the number of uncommitted timeslices.
func (s *Step) BufferLen() int { return len(s.buffer) }

// AppendSyndromes appends to the append-only syndrome sequence.
func (s *Step) AppendSyndromes(syndromes ...*Syndrome) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.Syndromes = append(s.Syndromes, syndromes...)
	return nil
}

// AppendDetectors appends to the append-only detector sequence.
func (s *Step) AppendDetectors(detectors ...*Detector) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.Detectors = append(s.Detectors, detectors...)
	return nil
}

// QueueStabilizerUpdate queues pending sign corrections for a stabilizer.
// The queued corrections are claimed, exactly once, by the next syndrome
// generated for that stabilizer.
func (s *Step) QueueStabilizerUpdate(stabID string, corrections ...Cbit) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.stabilizerUpdates[stabID] = append(s.stabilizerUpdates[stabID], corrections...)
	return nil
}

// takeStabilizerUpdates removes and returns the pending corrections for a
// stabilizer. Single consumption: a second take returns nil.
func (s *Step) takeStabilizerUpdates(stabID string) []Cbit {
	updates, ok := s.stabilizerUpdates[stabID]
	if !ok {
		return nil
	}
	delete(s.stabilizerUpdates, stabID)
	return updates
}

// PendingStabilizerUpdates returns the queued corrections without
// consuming them. Diagnostic only.
func (s *Step) PendingStabilizerUpdates(stabID string) []Cbit {
	return s.stabilizerUpdates[stabID]
}

// QueueLogicalUpdate accumulates measurement slots onto a logical
// operator's observable.
func (s *Step) QueueLogicalUpdate(operatorID, basis string, cbits ...Cbit) error {
	if err := s.mutable(); err != nil {
		return err
	}
	obs, ok := s.logicalIndex[operatorID]
	if !ok {
		obs = &Observable{Operator: operatorID, Basis: basis}
		s.logicalIndex[operatorID] = obs
		s.logicalUpdates = append(s.logicalUpdates, obs)
	}
	obs.Measurements = append(obs.Measurements, cbits...)
	return nil
}

// LogicalObservables returns the accumulated logical-operator observables
// in first-recorded order.
func (s *Step) LogicalObservables() []*Observable {
	out := make([]*Observable, len(s.logicalUpdates))
	copy(out, s.logicalUpdates)
	return out
}

// RecordStabilizerEvolution records that a newly formed stabilizer derives
// from the given ancestors.
func (s *Step) RecordStabilizerEvolution(newID string, ancestorIDs []string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.StabilizerEvolution[newID] = ancestorIDs
	return nil
}

// RecordLogicalEvolution records operator provenance for one basis and
// reparents any observable measurements already accumulated on the
// ancestors onto the successor: a structural operation changes the
// operator's identity, not the corrections its eventual readout owes.
// An ancestor's accumulator is claimed by the first successor recorded
// for it.
func (s *Step) RecordLogicalEvolution(basis, newID string, ancestorIDs []string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if basis == "X" {
		s.LogicalXEvolution[newID] = ancestorIDs
	} else {
		s.LogicalZEvolution[newID] = ancestorIDs
	}
	for _, ancestor := range ancestorIDs {
		old, ok := s.logicalIndex[ancestor]
		if !ok {
			continue
		}
		if len(old.Measurements) > 0 {
			if err := s.QueueLogicalUpdate(newID, basis, old.Measurements...); err != nil {
				return err
			}
		}
		delete(s.logicalIndex, ancestor)
		for i, obs := range s.logicalUpdates {
			if obs == old {
				s.logicalUpdates = append(s.logicalUpdates[:i], s.logicalUpdates[i+1:]...)
				break
			}
		}
	}
	return nil
}

// ReplaceBlocks retires oldBlocks and introduces newBlocks at the current
// timestamp, recording both the history delta and the block-evolution
// edges (every new block descends from all old ones).
func (s *Step) ReplaceBlocks(oldBlocks, newBlocks []*eka.Block) error {
	if err := s.mutable(); err != nil {
		return err
	}
	oldIDs := make([]string, len(oldBlocks))
	for i, b := range oldBlocks {
		oldIDs[i] = b.ID
	}
	newIDs := make([]string, len(newBlocks))
	for i, b := range newBlocks {
		newIDs[i] = b.ID
	}
	if err := s.History.UpdateBlocks(s.Now, oldIDs, newIDs); err != nil {
		return err
	}
	for _, b := range newBlocks {
		s.register(b)
		s.BlockEvolution[b.ID] = oldIDs
	}
	return nil
}

// Rounds returns the number of syndrome-measurement rounds recorded for a
// block so far.
func (s *Step) Rounds(blockID string) int { return s.blockRounds[blockID] }

// Sealed reports whether the final circuit has been sealed.
func (s *Step) Sealed() bool { return s.sealed }

// Seal flushes the intermediate buffer into FinalCircuit through one last
// padded-sequence pass and freezes the step. With an empty buffer the
// final circuit stays nil (a program without operations).
func (s *Step) Seal() error {
	if err := s.mutable(); err != nil {
		return err
	}
	if len(s.buffer) > 0 {
		final, err := eka.NewCircuit("final circuit", eka.PaddedTimeSequence(s.buffer))
		if err != nil {
			return fmt.Errorf("seal final circuit: %w", err)
		}
		s.FinalCircuit = final
	}
	s.buffer = nil
	s.sealed = true
	return nil
}

// Observable is a Detector-like aggregate over one logical operator's
// accumulated measurement slots, exported for decoders.
type Observable struct {
	Operator     string `json:"operator"`
	Basis        string `json:"basis"`
	Measurements []Cbit `json:"measurements"`
}
