package fx

import (
	"github.com/jsongraph/scorewav/pkg/dsp/filter"
	"github.com/jsongraph/scorewav/pkg/graph"
)

// BiquadKind selects which Audio-EQ-Cookbook prototype a BiquadFX
// recalculates to (spec.md §4.7).
type BiquadKind int

const (
	Lowpass BiquadKind = iota
	Highpass
	Allpass
	Notch
	Peak
	LowShelf
	HighShelf
)

// BiquadFX wraps a per-channel bank of filter.Biquad, recalculating
// coefficients whenever Freq/Q/Gain change (spec.md §4.7's "recalc on
// change" amortisation — here recalculated once per GetSamples call,
// which is this renderer's control-update interval).
type BiquadFX struct {
	unary
	kind       BiquadKind
	bq         []*filter.Biquad
	freq, q, g float64
}

// NewBiquadFX creates a biquad effect of the given kind over channels
// output channels.
func NewBiquadFX(g *graph.Graph, child graph.NodeID, channels int, kind BiquadKind, freq, q, gainDB float64) *BiquadFX {
	f := &BiquadFX{unary: newUnary(g, child, channels), kind: kind, freq: freq, q: q, g: gainDB}
	f.bq = make([]*filter.Biquad, channels)
	for i := range f.bq {
		f.bq[i] = filter.NewBiquad(1)
	}
	return f
}

func (f *BiquadFX) SampleDelay() int { return 0 }

func (f *BiquadFX) recalc(sr float64) {
	for _, b := range f.bq {
		switch f.kind {
		case Lowpass:
			b.SetLowpass(sr, f.freq, f.q)
		case Highpass:
			b.SetHighpass(sr, f.freq, f.q)
		case Allpass:
			b.SetAllpass(sr, f.freq, f.q)
		case Notch:
			b.SetNotch(sr, f.freq, f.q)
		case Peak:
			b.SetPeakingEQ(sr, f.freq, f.q, f.g)
		case LowShelf:
			b.SetLowShelf(sr, f.freq, f.q, f.g)
		case HighShelf:
			b.SetHighShelf(sr, f.freq, f.q, f.g)
		}
	}
}

func (f *BiquadFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := f.pull(nframes, sr, requester)
	f.recalc(sr)
	for ch := 0; ch < f.channels && ch < len(bufs); ch++ {
		copy(bufs[ch], in[ch])
		f.bq[ch].Process(bufs[ch], 0)
	}
	return true
}

// LadderFX wraps the Moog-style ladder filter (spec.md §4.7).
type LadderFX struct {
	unary
	ladder           *filter.Ladder
	cutoff, res, drv float64
}

func NewLadderFX(g *graph.Graph, child graph.NodeID, channels int, cutoff, resonance, drive float64) *LadderFX {
	return &LadderFX{
		unary:  newUnary(g, child, channels),
		ladder: filter.NewLadder(channels),
		cutoff: cutoff, res: resonance, drv: drive,
	}
}

func (f *LadderFX) SampleDelay() int { return 0 }

func (f *LadderFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := f.pull(nframes, sr, requester)
	f.ladder.SetCutoff(sr, f.cutoff)
	f.ladder.SetResonance(f.res)
	f.ladder.SetDrive(f.drv)
	for ch := 0; ch < f.channels && ch < len(bufs); ch++ {
		copy(bufs[ch], in[ch])
		f.ladder.Process(bufs[ch], ch)
	}
	return true
}

// BesselLowpassFX wraps the 4th-order Bessel lowpass (spec.md §4.7).
type BesselLowpassFX struct {
	unary
	lp   *filter.BesselLowpass
	freq float64
}

func NewBesselLowpassFX(g *graph.Graph, child graph.NodeID, channels int, freq float64) *BesselLowpassFX {
	return &BesselLowpassFX{unary: newUnary(g, child, channels), lp: filter.NewBesselLowpass(channels), freq: freq}
}

func (f *BesselLowpassFX) SampleDelay() int { return 0 }

func (f *BesselLowpassFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := f.pull(nframes, sr, requester)
	f.lp.SetCutoff(sr, f.freq)
	for ch := 0; ch < f.channels && ch < len(bufs); ch++ {
		copy(bufs[ch], in[ch])
		f.lp.Process(bufs[ch], ch)
	}
	return true
}

// SVFFX wraps the teacher's zero-delay-feedback state-variable filter
// (filter.MultiModeSVF), morphing continuously between lowpass,
// bandpass, highpass and notch via a single "mode" parameter (spec.md
// §4.7's filter family, the morphable alternative to the fixed-response
// biquad/ladder/Bessel units).
type SVFFX struct {
	unary
	svf        *filter.MultiModeSVF
	freq, q    float64
	mode       float64
}

// NewSVFFX creates an SVF effect; mode sweeps 0=lowpass, 0.25=bandpass,
// 0.5=highpass, 0.75=notch (and wraps).
func NewSVFFX(g *graph.Graph, child graph.NodeID, channels int, freq, q, mode float64) *SVFFX {
	f := &SVFFX{unary: newUnary(g, child, channels), svf: filter.NewMultiModeSVF(channels), freq: freq, q: q, mode: mode}
	f.svf.SetMode(mode)
	return f
}

func (f *SVFFX) SampleDelay() int { return 0 }

func (f *SVFFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := f.pull(nframes, sr, requester)
	f.svf.SetFrequencyAndQ(sr, f.freq, f.q)
	f.svf.SetMode(f.mode)
	for ch := 0; ch < f.channels && ch < len(bufs); ch++ {
		copy(bufs[ch], in[ch])
		f.svf.Process(bufs[ch], ch)
	}
	return true
}
