// Package fx adapts the teacher's pkg/dsp processing units into
// graph.AudioNode wrappers: each effect pulls its single child node's
// samples and runs them through a DSP unit from pkg/dsp, matching the
// channel count and sample-delay reporting every node in pkg/graph
// must provide. These are the concrete nodes the interpreter (§4.12)
// wires into the graph for each part/bus fx entry (§6).
package fx

import "github.com/jsongraph/scorewav/pkg/graph"

// unary is embedded by every single-input fx node: it owns the pull
// machinery (resolve the child, allocate a scratch buffer, call
// GetSamples) so each concrete effect only implements the per-sample
// transform.
type unary struct {
	graph.BaseNode
	g        *graph.Graph
	child    graph.NodeID
	channels int
	scratch  [][]float32
}

func newUnary(g *graph.Graph, child graph.NodeID, channels int) unary {
	return unary{g: g, child: child, channels: channels}
}

func (u *unary) NumChannels() int { return u.channels }

// pull fetches nframes samples from the child into a reusable scratch
// buffer, returning it (or a false-filled one on upstream failure).
func (u *unary) pull(nframes int, sr float64, requester graph.NodeID) [][]float32 {
	if len(u.scratch) != u.channels || (len(u.scratch) > 0 && len(u.scratch[0]) != nframes) {
		u.scratch = make([][]float32, u.channels)
		for ch := range u.scratch {
			u.scratch[ch] = make([]float32, nframes)
		}
	}
	for ch := range u.scratch {
		for i := range u.scratch[ch] {
			u.scratch[ch][i] = 0
		}
	}
	if n := u.g.Resolve(u.child); n != nil {
		n.GetSamples(u.scratch, nframes, sr, requester)
	}
	return u.scratch
}
