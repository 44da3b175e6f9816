package fx

import (
	"github.com/jsongraph/scorewav/pkg/dsp/pan"
	"github.com/jsongraph/scorewav/pkg/graph"
)

// PannerFX places a mono child in the stereo field (spec.md §6
// "panner"). Its child is mono; its own NumChannels is 2, so it cannot
// embed unary directly (child and node channel counts differ).
type PannerFX struct {
	graph.BaseNode
	g       *graph.Graph
	child   graph.NodeID
	panPos  float32
	law     pan.Law
	scratch [][]float32
}

func NewPannerFX(g *graph.Graph, child graph.NodeID, panPos float64, law pan.Law) *PannerFX {
	return &PannerFX{g: g, child: child, panPos: float32(panPos), law: law}
}

func (p *PannerFX) NumChannels() int { return 2 }
func (p *PannerFX) SampleDelay() int { return 0 }

func (p *PannerFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	if len(p.scratch) != 1 || len(p.scratch[0]) != nframes {
		p.scratch = [][]float32{make([]float32, nframes)}
	} else {
		for i := range p.scratch[0] {
			p.scratch[0][i] = 0
		}
	}
	if n := p.g.Resolve(p.child); n != nil {
		n.GetSamples(p.scratch, nframes, sr, requester)
	}
	pan.Process(p.scratch[0], p.panPos, p.law, bufs[0], bufs[1])
	return true
}

// MSFX converts a stereo child's L/R to mid/side (spec.md §6 "ms").
type MSFX struct {
	unary
}

func NewMSFX(g *graph.Graph, child graph.NodeID) *MSFX {
	return &MSFX{unary: newUnary(g, child, 2)}
}

func (m *MSFX) SampleDelay() int { return 0 }

func (m *MSFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := m.pull(nframes, sr, requester)
	for i := 0; i < nframes; i++ {
		l, r := in[0][i], in[1][i]
		bufs[0][i] = (l + r) * 0.5
		bufs[1][i] = (l - r) * 0.5
	}
	return true
}

// LRFX converts a stereo child's mid/side back to L/R (spec.md §6
// "lr") — the inverse of MSFX: L = mid+side, R = mid-side.
type LRFX struct {
	unary
}

func NewLRFX(g *graph.Graph, child graph.NodeID) *LRFX {
	return &LRFX{unary: newUnary(g, child, 2)}
}

func (l *LRFX) SampleDelay() int { return 0 }

func (l *LRFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := l.pull(nframes, sr, requester)
	for i := 0; i < nframes; i++ {
		mid, side := in[0][i], in[1][i]
		bufs[0][i] = mid + side
		bufs[1][i] = mid - side
	}
	return true
}
