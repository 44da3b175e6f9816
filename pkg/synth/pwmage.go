package synth

import (
	"math"

	"github.com/jsongraph/scorewav/pkg/graph"
)

// PWMageConfig selects how many detuned voices PWMage places, and at what
// phase offsets, per spec.md §4.6.
type PWMageConfig int

const (
	PWMageMono PWMageConfig = iota
	PWMageStereo
	PWMageTriple
)

// polyBLEP returns the band-limiting correction for a discontinuity at
// phase t (in [0,1)) with per-sample phase increment dt, grounded on the
// teacher pack's polyBLEP32 implementation.
func polyBLEP(t, dt float64) float64 {
	if t < dt {
		t /= dt
		return t + t - t*t - 1.0
	} else if t > 1.0-dt {
		t = (t - 1.0) / dt
		return t*t + t + t + 1.0
	}
	return 0.0
}

// dpwSaw is a single antialiased sawtooth voice: polyBLEP correction
// followed by third-order differentiated parabolic wave (DPW) shaping,
// which pushes harmonic rolloff well past what polyBLEP alone achieves.
type dpwSaw struct {
	phase  float64
	z1, z2 float64
}

// next produces one saw sample at frequency freq (Hz), phase offset
// phaseOffset (cycles), given phase increment dt (cycles/sample).
func (s *dpwSaw) next(dt, phaseOffset float64) float64 {
	p := s.phase + phaseOffset
	p -= math.Floor(p)

	raw := 2*p - 1
	raw -= polyBLEP(p, dt)

	x := raw * raw * raw / 6 // integrate naive saw's cube once (third-order DPW)
	diff := x - 2*s.z1 + s.z2
	s.z2 = s.z1
	s.z1 = x

	scale := 1.0 / (4 * dt * dt)
	out := diff * scale

	s.phase += dt
	s.phase -= math.Floor(s.phase)
	return out
}

// voice is one PWMage oscillator: two DPW saws (reference and a
// phase-modulated twin) whose difference is a pulse wave of
// time-varying width.
type voice struct {
	ref, twin dpwSaw
	phaseBias float64
}

func (v *voice) next(dt, width float64) float64 {
	ref := v.ref.next(dt, v.phaseBias)
	twin := v.twin.next(dt, v.phaseBias+width)
	return ref - twin
}

// PWMage is the pulse-width-modulated square synth from spec.md §4.6: a
// phase-modulated twin saw subtracted from a reference saw whose width is
// driven by center + amt*sin(2*pi*pm_phase), with one, two or three
// detuned voices placed at phase offsets 0, 1/3, 2/3.
type PWMage struct {
	Base

	config PWMageConfig
	voices []voice

	widthCenter float64
	widthAmt    float64
	pmFreq      float64
	pmPhase     float64
}

// NewPWMage creates a PWMage synth with the given configuration.
func NewPWMage(g *graph.Graph, frequency, amplitude float64, config PWMageConfig) *PWMage {
	p := &PWMage{
		config:      config,
		widthCenter: 0.5,
		widthAmt:    0.0,
		pmFreq:      0.0,
	}
	p.Init(g, frequency, amplitude)

	n := 1
	switch config {
	case PWMageStereo:
		n = 2
	case PWMageTriple:
		n = 3
	}
	p.voices = make([]voice, n)
	for i := range p.voices {
		p.voices[i].phaseBias = float64(i) / float64(n)
	}
	return p
}

func (PWMage) onAmplitudeChange(float32, float64)    {}
func (PWMage) onPhaseOffsetChange(float64, float64) {}
func (PWMage) onFrequencyChange(float32, float64)    {}

// SetWidth sets the pulse-width modulation center and depth (both in
// [0,1] cycle fractions).
func (p *PWMage) SetWidth(center, amt float64) {
	p.widthCenter = center
	p.widthAmt = amt
}

// SetWidthModFrequency sets the LFO rate modulating pulse width.
func (p *PWMage) SetWidthModFrequency(freq float64) { p.pmFreq = freq }

// NumChannels implements graph.AudioNode: PWMageMono is 1, Stereo/Triple
// place their extra voices across 2 output channels (triple's third voice
// mixes into both).
func (p *PWMage) NumChannels() int {
	if p.config == PWMageMono {
		return 1
	}
	return 2
}

// SampleDelay implements graph.AudioNode: no added latency (DPW's
// leaky-integrator-free differencing needs no lookahead).
func (p *PWMage) SampleDelay() int { return 0 }

// GetSamples implements graph.AudioNode.
func (p *PWMage) GetSamples(bufs [][]float32, nframes int, sr float64, _ graph.NodeID) bool {
	if len(bufs) == 0 {
		return false
	}
	p.SetSampleRate(sr)
	dt := 1.0 / sr

	p.RunEvents(nframes, func(i int) {
		p.Increment(dt, p)
		freq := p.Frequency()
		amp := float32(p.Amplitude())
		fdt := freq / sr

		p.pmPhase += p.pmFreq * dt
		p.pmPhase -= math.Floor(p.pmPhase)
		width := p.widthCenter + p.widthAmt*float64(fastSin(p.pmPhase))
		if width < 0.02 {
			width = 0.02
		} else if width > 0.98 {
			width = 0.98
		}

		switch p.config {
		case PWMageMono:
			bufs[0][i] = amp * float32(p.voices[0].next(fdt, width))
		case PWMageStereo:
			bufs[0][i] = amp * float32(p.voices[0].next(fdt, width))
			bufs[1][i] = amp * float32(p.voices[1].next(fdt, width))
		case PWMageTriple:
			third := p.voices[2].next(fdt, width)
			left := p.voices[0].next(fdt, width) + 0.5*third
			right := p.voices[1].next(fdt, width) + 0.5*third
			bufs[0][i] = amp * float32(left)
			bufs[1][i] = amp * float32(right)
		}
	})

	return true
}
