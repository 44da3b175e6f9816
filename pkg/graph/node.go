// Package graph implements the pull-based audio processing graph: the
// AudioNode protocol, multi-input joins with delay compensation,
// multi-output fan-out, and the sample-indexed event schedule that drives
// parameter automation inline with sample production.
package graph

import "errors"

// NodeID identifies a node inside a Graph's arena. It replaces the
// strong/weak reference cycles of the original design (see spec.md §9):
// joins hold NodeIDs instead of pointers, and a node is only reachable
// while its generation in the arena matches.
type NodeID struct {
	index int
	gen   uint32
}

// Invalid is the NodeID with index -1; no node is ever assigned it.
var Invalid = NodeID{index: -1}

// Valid reports whether id could plausibly reference a live node.
func (id NodeID) Valid() bool { return id.index >= 0 }

// ErrChannelMismatch is reported (and recovered as silence) when a node
// receives a channel count it cannot produce.
var ErrChannelMismatch = errors.New("graph: channel count mismatch")

// ErrExcessiveDelay is reported when a delay line is asked to read more
// samples than it has buffered.
var ErrExcessiveDelay = errors.New("graph: excessive delay")

// AudioNode is the processing protocol every graph node implements.
//
// GetSamples must write exactly nframes samples into every channel of
// bufs on success, or leave bufs untouched and return false on failure
// (upstream starvation, allocation failure, or a channel mismatch) —
// callers, typically JoinNode, treat an unfilled buffer as silence and
// must still advance their own sample counters (§7, §8 invariants).
type AudioNode interface {
	// NumChannels is the channel count this node is willing to produce.
	NumChannels() int

	// SampleDelay is this node's intrinsic latency in samples, accumulated
	// so that joins can delay-align peer inputs.
	SampleDelay() int

	// GetSamples fills bufs (nch == NumChannels() of this node, each of
	// length nframes) from the node. requester lets fan-out nodes track
	// per-consumer read cursors.
	GetSamples(bufs [][]float32, nframes int, sampleRate float64, requester NodeID) bool

	// OnAddedAsInput / OnRemovedFromInput fire when this node is wired
	// into or out of a downstream join; fan-out queues use these to
	// register and retire per-consumer cursors.
	OnAddedAsInput(downstream NodeID)
	OnRemovedFromInput(downstream NodeID)
}

// BaseNode supplies no-op lifecycle hooks so concrete node types only
// need to implement GetSamples/NumChannels/SampleDelay, matching the
// teacher's habit of embedding small default implementations (see
// pkg/framework/voice.Voice implementations in the teacher tree).
type BaseNode struct{}

func (BaseNode) OnAddedAsInput(NodeID)     {}
func (BaseNode) OnRemovedFromInput(NodeID) {}
