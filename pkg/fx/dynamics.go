package fx

import (
	"github.com/jsongraph/scorewav/pkg/dsp/dynamics"
	"github.com/jsongraph/scorewav/pkg/graph"
)

// CompressorFX wraps the ADAA compressor (default) or, when antialiasing
// is disabled, the teacher's simpler feed-forward Compressor (spec.md
// §4.10; the "compressor" fx key accepts an "antialiased" parameter
// defaulting to on).
type CompressorFX struct {
	unary
	adaa       *dynamics.ADAACompressor
	simple     *dynamics.Compressor
	useSimple  bool
	sampleRate float64
}

// NewCompressorFX creates a compressor effect over a stereo (2-channel)
// child.
func NewCompressorFX(g *graph.Graph, child graph.NodeID, sr, thresholdDB, ratio, kneeDB, attack, release float64, antialiased bool) *CompressorFX {
	c := &CompressorFX{unary: newUnary(g, child, 2), useSimple: !antialiased, sampleRate: sr}
	if antialiased {
		c.adaa = dynamics.NewADAACompressor(sr, thresholdDB, ratio, kneeDB)
		c.adaa.SetAttackRelease(attack, release)
	} else {
		c.simple = dynamics.NewCompressor(sr)
		c.simple.SetThreshold(thresholdDB)
		c.simple.SetRatio(ratio)
		c.simple.SetKnee(dynamics.KneeSoft, kneeDB)
		c.simple.SetAttack(attack)
		c.simple.SetRelease(release)
	}
	return c
}

// SetStereoMode forwards to the underlying ADAA compressor; a no-op
// under the simple (non-antialiased) compressor, which is always LR.
func (c *CompressorFX) SetStereoMode(m dynamics.StereoMode) {
	if c.adaa != nil {
		c.adaa.SetStereoMode(m)
	}
}

func (c *CompressorFX) SampleDelay() int {
	if c.adaa != nil {
		return c.adaa.SampleDelay()
	}
	return 0
}

func (c *CompressorFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := c.pull(nframes, sr, requester)
	left := append([]float32(nil), in[0]...)
	var right []float32
	if len(in) > 1 {
		right = append([]float32(nil), in[1]...)
	} else {
		right = append([]float32(nil), in[0]...)
	}

	if c.adaa != nil {
		c.adaa.Process(left, right)
	} else {
		c.simple.ProcessStereo(left, right, left, right)
	}

	copy(bufs[0], left)
	if len(bufs) > 1 {
		copy(bufs[1], right)
	}
	return true
}

// GateFX wraps the teacher's hysteresis noise gate (dynamics.Gate) as a
// selectable fx, one gate instance per channel so stereo material gates
// independently per side.
type GateFX struct {
	unary
	gates []*dynamics.Gate
}

// NewGateFX creates a noise gate effect: threshold/hysteresis/attack/
// hold/release/rangeDB all in the gate's native units (dB, seconds).
func NewGateFX(g *graph.Graph, child graph.NodeID, channels int, sr, threshold, hysteresis, attack, hold, release, rangeDB float64) *GateFX {
	f := &GateFX{unary: newUnary(g, child, channels)}
	f.gates = make([]*dynamics.Gate, channels)
	for i := range f.gates {
		gt := dynamics.NewGate(sr)
		gt.SetThreshold(threshold)
		gt.SetHysteresis(hysteresis)
		gt.SetAttack(attack)
		gt.SetHold(hold)
		gt.SetRelease(release)
		gt.SetRange(rangeDB)
		f.gates[i] = gt
	}
	return f
}

func (f *GateFX) SampleDelay() int { return 0 }

func (f *GateFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := f.pull(nframes, sr, requester)
	for ch := 0; ch < f.channels && ch < len(bufs); ch++ {
		for i := 0; i < nframes; i++ {
			bufs[ch][i] = f.gates[ch].Process(in[ch][i])
		}
	}
	return true
}

// LimiterFX wraps the teacher's lookahead brick-wall limiter
// (dynamics.Limiter), one instance per channel.
type LimiterFX struct {
	unary
	limiters []*dynamics.Limiter
	lookahead float64
}

// NewLimiterFX creates a limiter effect: thresholdDB is the ceiling,
// release in seconds, lookaheadSec in seconds, truePeak enables 2x
// oversampled peak estimation.
func NewLimiterFX(g *graph.Graph, child graph.NodeID, channels int, sr, thresholdDB, release, lookaheadSec float64, truePeak bool) *LimiterFX {
	f := &LimiterFX{unary: newUnary(g, child, channels), lookahead: lookaheadSec}
	f.limiters = make([]*dynamics.Limiter, channels)
	for i := range f.limiters {
		lm := dynamics.NewLimiter(sr)
		lm.SetThreshold(thresholdDB)
		lm.SetRelease(release)
		lm.SetLookahead(lookaheadSec)
		lm.SetTruePeak(truePeak)
		f.limiters[i] = lm
	}
	return f
}

// SampleDelay reports the lookahead buffer's latency in samples so
// joins can delay-align peer inputs (spec.md §4.1's sample_delay
// contract); the limiter's internal delay line is sized identically
// for every channel, so any instance's lookahead answers for all. The
// limiter clamps lookahead to [0, 10ms], so the same clamp applies here;
// the count is taken at the 44.1 kHz render rate.
func (f *LimiterFX) SampleDelay() int {
	la := f.lookahead
	if la > 0.010 {
		la = 0.010
	} else if la < 0 {
		la = 0
	}
	return int(la * 44100)
}

func (f *LimiterFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := f.pull(nframes, sr, requester)
	for ch := 0; ch < f.channels && ch < len(bufs); ch++ {
		for i := 0; i < nframes; i++ {
			bufs[ch][i] = f.limiters[ch].Process(in[ch][i])
		}
	}
	return true
}

// ExpanderFX wraps the teacher's downward expander (dynamics.Expander),
// one instance per channel.
type ExpanderFX struct {
	unary
	expanders []*dynamics.Expander
}

// NewExpanderFX creates a downward-expander effect.
func NewExpanderFX(g *graph.Graph, child graph.NodeID, channels int, sr, threshold, ratio, attack, release, knee, rangeDB float64) *ExpanderFX {
	f := &ExpanderFX{unary: newUnary(g, child, channels)}
	f.expanders = make([]*dynamics.Expander, channels)
	for i := range f.expanders {
		ex := dynamics.NewExpander(sr)
		ex.SetThreshold(threshold)
		ex.SetRatio(ratio)
		ex.SetAttack(attack)
		ex.SetRelease(release)
		ex.SetKnee(knee)
		ex.SetRange(rangeDB)
		f.expanders[i] = ex
	}
	return f
}

func (f *ExpanderFX) SampleDelay() int { return 0 }

func (f *ExpanderFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := f.pull(nframes, sr, requester)
	for ch := 0; ch < f.channels && ch < len(bufs); ch++ {
		for i := 0; i < nframes; i++ {
			bufs[ch][i] = f.expanders[ch].Process(in[ch][i])
		}
	}
	return true
}
