package fx

import (
	"github.com/jsongraph/scorewav/pkg/dsp/modulation"
	"github.com/jsongraph/scorewav/pkg/graph"
)

// RingModFX modulates its child against an internal carrier oscillator
// (spec.md §6's "ringmod"/"ringmodsum" fx keys). This is distinct from
// graph.JoinNode's RingMod/RingModSum kinds, which ring-modulate two
// peer graph inputs against each other via oversampled pairwise
// multiplication (§4.4) — here there is only one audio input, so the
// second operand is a synthesised carrier, matching the teacher's own
// RingModulator unit rather than requiring a second wired input.
type RingModFX struct {
	unary
	rm  *modulation.RingModulator
	sum bool // ringmodsum: mix carrier-modulated signal with dry via rm.mix
}

func NewRingModFX(g *graph.Graph, child graph.NodeID, channels int, sr, carrierHz, mix float64, sum bool) *RingModFX {
	f := &RingModFX{unary: newUnary(g, child, channels), rm: modulation.NewRingModulator(sr), sum: sum}
	f.rm.SetFrequency(carrierHz)
	f.rm.SetMix(mix)
	return f
}

func (f *RingModFX) SampleDelay() int { return 0 }

func (f *RingModFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := f.pull(nframes, sr, requester)
	if f.channels >= 2 && len(bufs) >= 2 {
		for i := 0; i < nframes; i++ {
			l, r := f.rm.ProcessStereo(in[0][i], in[1][i])
			bufs[0][i] = l
			bufs[1][i] = r
		}
		return true
	}
	for i := 0; i < nframes; i++ {
		bufs[0][i] = f.rm.Process(in[0][i])
	}
	return true
}
