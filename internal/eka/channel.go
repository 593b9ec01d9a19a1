package eka

import "github.com/google/uuid"

// ChannelKind distinguishes quantum wires from classical bit channels.
type ChannelKind string

const (
	Quantum   ChannelKind = "quantum"
	Classical ChannelKind = "classical"
)

// DefaultLabel returns the default label for a channel of this kind.
func (k ChannelKind) DefaultLabel() string {
	if k == Classical {
		return "classical_bit"
	}
	return "data_qubit"
}

// Channel identifies one information wire connecting circuit elements.
// Channels are immutable values; identity is (Kind, ID).
type Channel struct {
	Kind  ChannelKind `json:"kind"`
	Label string      `json:"label"`
	ID    string      `json:"id"`
}

// NewChannel mints a channel with a fresh UUID. An empty label defaults
// based on the kind.
func NewChannel(kind ChannelKind, label string) Channel {
	if label == "" {
		label = kind.DefaultLabel()
	}
	return Channel{Kind: kind, Label: label, ID: uuid.NewString()}
}

// Same reports identity equality. Labels are ignored: a channel renamed for
// display is still the same wire.
func (c Channel) Same(other Channel) bool {
	return c.Kind == other.Kind && c.ID == other.ID
}

// IsQuantum reports whether the channel carries a qubit.
func (c Channel) IsQuantum() bool { return c.Kind == Quantum }

// IsClassical reports whether the channel carries a classical bit.
func (c Channel) IsClassical() bool { return c.Kind == Classical }
