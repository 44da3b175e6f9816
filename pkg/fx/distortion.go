package fx

import (
	"github.com/jsongraph/scorewav/pkg/dsp/distortion"
	"github.com/jsongraph/scorewav/pkg/graph"
)

// DistortionFX wraps a per-channel Chebyshev waveshaper (spec.md §4.9,
// §6's "distortion"/"busdistortion" fx keys — the two keys differ only
// in where the interpreter wires them, a part's own signal versus a
// bus's already-summed one; the node itself is identical).
type DistortionFX struct {
	unary
	shapers []*distortion.ChebyShaper
	mix     float32
}

func NewDistortionFX(g *graph.Graph, child graph.NodeID, channels, order int, mode distortion.ChebyMode, oversample int, mix float64) *DistortionFX {
	d := &DistortionFX{unary: newUnary(g, child, channels), mix: float32(mix)}
	d.shapers = make([]*distortion.ChebyShaper, channels)
	for i := range d.shapers {
		d.shapers[i] = distortion.NewChebyShaper(order, mode, oversample)
	}
	return d
}

func (d *DistortionFX) SampleDelay() int {
	if len(d.shapers) == 0 {
		return 0
	}
	return d.shapers[0].SampleDelay()
}

func (d *DistortionFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := d.pull(nframes, sr, requester)
	for ch := 0; ch < d.channels && ch < len(bufs); ch++ {
		wet := append([]float32(nil), in[ch]...)
		d.shapers[ch].Process(wet)
		for i := range bufs[ch] {
			bufs[ch][i] = in[ch][i]*(1-d.mix) + wet[i]*d.mix
		}
	}
	return true
}
