package synth

import (
	"math"

	"github.com/jsongraph/scorewav/pkg/graph"
	"github.com/jsongraph/scorewav/pkg/ramp"
)

// AdditiveMode is one user-supplied partial: a frequency ratio against the
// synth's fundamental and a relative amplitude.
type AdditiveMode struct {
	FreqRatio float64
	Amplitude float64
}

// additivePartial is a mode's running phase state.
type additivePartial struct {
	phase  float64
	dphase float64
}

// AdditiveHitSynth shares DrumHitSynth's event model (Hit schedules a
// transient->decay amplitude ramp) but sums user-supplied
// (freq_ratio, amplitude) partials with a single amplitude ramp governing
// all of them — there is no per-mode decay envelope (spec.md §4.6).
type AdditiveHitSynth struct {
	Base

	modes    []AdditiveMode
	partials []additivePartial

	strengthToAmp float64
	transientTime float64
	decayTime     float64
	decayShape    ramp.Shape
}

// NewAdditiveHitSynth creates an additive hit synth over modes at the
// given fundamental frequency.
func NewAdditiveHitSynth(g *graph.Graph, fundamental float64, modes []AdditiveMode) *AdditiveHitSynth {
	a := &AdditiveHitSynth{
		modes:         modes,
		partials:      make([]additivePartial, len(modes)),
		strengthToAmp: 0.5,
		transientTime: 0.0005,
		decayTime:     1.0,
		decayShape:    ramp.LogScaleLinear,
	}
	a.Init(g, fundamental, 0)
	return a
}

// onHitChange is intentionally empty: the original AdditiveHitSynth never
// populates it (spec.md §9 open question a), so per-mode state here is
// recomputed only from OnFrequencyChange.
func (AdditiveHitSynth) onHitChange() {}

func (AdditiveHitSynth) onAmplitudeChange(float32, float64)    {}
func (AdditiveHitSynth) onPhaseOffsetChange(float64, float64) {}

func (a *AdditiveHitSynth) onFrequencyChange(freq float32, dt float64) {
	for i, m := range a.modes {
		a.partials[i].dphase = float64(freq) * m.FreqRatio * dt
	}
}

// NumChannels implements graph.AudioNode: mono.
func (a *AdditiveHitSynth) NumChannels() int { return 1 }

// SampleDelay implements graph.AudioNode: no added latency.
func (a *AdditiveHitSynth) SampleDelay() int { return 0 }

// GetSamples implements graph.AudioNode.
func (a *AdditiveHitSynth) GetSamples(bufs [][]float32, nframes int, sr float64, _ graph.NodeID) bool {
	if len(bufs) == 0 {
		return false
	}
	a.SetSampleRate(sr)
	dt := 1.0 / sr
	buf := bufs[0]

	a.RunEvents(nframes, func(i int) {
		a.Increment(dt, a)
		amp := float32(a.Amplitude())
		var smp float32
		if amp > 0.0001 {
			for idx, m := range a.modes {
				p := &a.partials[idx]
				p.phase += p.dphase
				p.phase -= math.Floor(p.phase)
				smp += amp * float32(m.Amplitude) * fastCos(p.phase)
			}
		}
		buf[i] = smp
	})

	for ch := 1; ch < len(bufs); ch++ {
		copy(bufs[ch], buf)
	}
	return true
}

// Hit triggers a new strike: schedules the shared transient->decay
// amplitude ramp. Unlike DrumHitSynth there is no per-mode phase reset or
// filter-gain schedule; amplitude alone governs the envelope.
func (a *AdditiveHitSynth) Hit(sampleNum uint64, strength float64) {
	hitAmp := a.strengthToAmp * strength
	a.SetAmplitudeRamp(ramp.New(ramp.SCurve, hitAmp, a.transientTime))
	a.Events.Add(sampleNum+uint64(a.transientTime*a.SampleRate()), AmplitudeEvent{ramp.New(a.decayShape, 0, a.decayTime)})
	a.RequestRefresh()
}
