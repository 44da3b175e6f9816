package fx

import (
	"github.com/jsongraph/scorewav/pkg/dsp/gain"
	"github.com/jsongraph/scorewav/pkg/graph"
)

// FaderFX applies a fixed gain in dB to every channel (spec.md §6's
// "fader" fx key).
type FaderFX struct {
	unary
	gainDB float64
}

func NewFaderFX(g *graph.Graph, child graph.NodeID, channels int, gainDB float64) *FaderFX {
	return &FaderFX{unary: newUnary(g, child, channels), gainDB: gainDB}
}

func (f *FaderFX) SampleDelay() int { return 0 }

func (f *FaderFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := f.pull(nframes, sr, requester)
	g := gain.DbToLinear32(float32(f.gainDB))
	for ch := 0; ch < f.channels && ch < len(bufs); ch++ {
		gain.ApplyBufferTo(in[ch], g, bufs[ch])
	}
	return true
}
