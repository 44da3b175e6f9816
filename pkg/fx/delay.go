package fx

import (
	delaypkg "github.com/jsongraph/scorewav/pkg/dsp/delay"
	"github.com/jsongraph/scorewav/pkg/graph"
)

// DelayFX wraps a feedback delay line per channel (spec.md §6 "delay").
type DelayFX struct {
	unary
	lines        []*delaypkg.Line
	delayMs      float64
	feedback     float32
	mix          float32
	sampleRate   float64
}

func NewDelayFX(g *graph.Graph, child graph.NodeID, channels int, sr, delayMs, feedback, mix float64) *DelayFX {
	d := &DelayFX{unary: newUnary(g, child, channels), delayMs: delayMs, feedback: float32(feedback), mix: float32(mix), sampleRate: sr}
	d.lines = make([]*delaypkg.Line, channels)
	for i := range d.lines {
		d.lines[i] = delaypkg.New(2.0, sr)
	}
	return d
}

func (d *DelayFX) SampleDelay() int { return 0 }

func (d *DelayFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := d.pull(nframes, sr, requester)
	delaySamples := d.delayMs * sr / 1000.0
	for ch := 0; ch < d.channels && ch < len(bufs); ch++ {
		line := d.lines[ch]
		out := bufs[ch]
		for i, x := range in[ch] {
			wet := line.Read(delaySamples)
			line.Write(x + wet*d.feedback)
			out[i] = x*(1-d.mix) + wet*d.mix
		}
	}
	return true
}
