package synth

import (
	"math"
	"math/rand"

	"github.com/jsongraph/scorewav/pkg/dsp/filter"
	"github.com/jsongraph/scorewav/pkg/graph"
	"github.com/jsongraph/scorewav/pkg/ramp"
)

// mode holds one (order, zero) additive partial's running state.
type mode struct {
	phase  float64
	dphase float64
	amp    float32
	decay  float32 // per-sample amplitude multiplier, derived from RT60
}

// DrumHitSynth is the additive Bessel-mode membrane synth from spec.md
// §4.6: NumOrders*NumZeros partials, each with its own phase, decay and
// hit-dependent amplitude, driven through four series peaking filters
// whose gain envelopes shape the hit's spectral evolution over time.
type DrumHitSynth struct {
	Base

	modes [NumOrders][NumZeros]mode

	hitRangeMax float64 // configured upper bound; each Hit samples hitPosition uniformly in [0, hitRangeMax]
	hitPosition float64
	micRadius   float64
	hitAngle    float64

	strengthToAmp float64
	transientTime float64
	decayDelay    float64
	decayAmount   float64
	decayTime     float64
	decayShape    ramp.Shape

	fundamental  float64
	rt60Seconds  float64

	filts    [4]*filter.Biquad
	filtFreq [4]float64
	filtGain [4]*ramp.Ramp
	filtLast [4]float64

	rng *rand.Rand
}

// NewDrumHitSynth creates a drum-hit synth at the given fundamental
// frequency (§4.6). rng supplies the hit-position/angle randomisation.
func NewDrumHitSynth(g *graph.Graph, fundamental float64, rng *rand.Rand) *DrumHitSynth {
	d := &DrumHitSynth{
		hitRangeMax:   0.2,
		strengthToAmp: 0.25,
		transientTime: 0.00025,
		decayDelay:    0.1,
		decayAmount:   0.001,
		decayTime:     2.0,
		decayShape:    ramp.LogScaleLinear,
		fundamental:   fundamental,
		rt60Seconds:   2.0,
		filtFreq:      [4]float64{8000, 2500, 800, fundamental},
		rng:           rng,
	}
	d.Init(g, fundamental, 0)
	for i := range d.filts {
		d.filts[i] = filter.NewBiquad(1)
		d.filtGain[i] = ramp.New(ramp.Instant, 0, 0)
	}
	d.recomputeModes()
	return d
}

func (DrumHitSynth) onAmplitudeChange(float32, float64) {}

func (d *DrumHitSynth) onFrequencyChange(freq float32, dt float64) {
	for o := 0; o < NumOrders; o++ {
		for z := 0; z < NumZeros; z++ {
			d.modes[o][z].dphase = float64(freq) * BesselRoot(o, z) * dt
		}
	}
}

func (d *DrumHitSynth) onPhaseOffsetChange(float64, float64) {}

// recomputeModes recalculates every mode's amplitude and RT60-derived
// decay from the current hit position, mic radius and angle.
func (d *DrumHitSynth) recomputeModes() {
	for o := 0; o < NumOrders; o++ {
		for z := 0; z < NumZeros; z++ {
			amp := modeAmp(o, z, d.hitPosition) * jnDrum(o, z, d.micRadius) * float64(fastCos(float64(z)*d.hitAngle/(2*math.Pi)))
			d.modes[o][z].amp = float32(amp)
			d.modes[o][z].decay = rt60Decay(d.rt60Seconds, d.SampleRate(), BesselRoot(o, z))
		}
	}
}

// rt60Decay converts an RT60 (seconds to decay 60dB) into a per-sample
// linear amplitude multiplier, scaled inversely by a mode's relative
// frequency so higher partials decay faster (matches DrumHitRT60.h's
// "halfup" family: decay time is inversely proportional to mode frequency).
func rt60Decay(rt60 float64, sr float64, relFreq float64) float32 {
	if sr <= 0 {
		sr = 44100
	}
	effectiveRT60 := rt60 / math.Max(relFreq, 0.25)
	dbPerSample := 60.0 / (effectiveRT60 * sr)
	return float32(math.Pow(10, -dbPerSample/20))
}

// SampleDelay implements graph.AudioNode: no added latency.
func (d *DrumHitSynth) SampleDelay() int { return 0 }

// NumChannels implements graph.AudioNode: mono.
func (d *DrumHitSynth) NumChannels() int { return 1 }

// GetSamples implements graph.AudioNode.
func (d *DrumHitSynth) GetSamples(bufs [][]float32, nframes int, sr float64, _ graph.NodeID) bool {
	if len(bufs) == 0 {
		return false
	}
	d.SetSampleRate(sr)
	dt := 1.0 / sr
	buf := bufs[0]

	d.RunEvents(nframes, func(i int) {
		d.Increment(dt, d)
		amp := float32(d.Amplitude())
		var smp float32
		if amp > 0.0001 {
			for o := 0; o < NumOrders; o++ {
				for z := 0; z < NumZeros; z++ {
					m := &d.modes[o][z]
					m.phase += m.dphase
					m.phase -= math.Floor(m.phase)
					smp += amp * m.amp * fastCos(m.phase)
					m.amp *= m.decay
				}
			}
		}
		buf[i] = smp
	})

	for ch := 1; ch < len(bufs); ch++ {
		copy(bufs[ch], buf)
	}

	for i, f := range d.filts {
		gain := d.filtGain[i].Step(dt*float64(nframes), d.filtLast[i], sr)
		d.filtLast[i] = gain
		f.SetPeakingEQ(sr, d.filtFreq[i], 0.7, gain)
		f.Process(buf, 0)
	}
	return true
}

// Hit triggers a new strike (spec.md §4.6): resets phase, randomises hit
// radius in [0, hitRange] and angle uniformly (every hit, per §9 open
// question b), cancels any pending amplitude/frequency events in the
// window the new decay schedule will occupy, and schedules the
// transient->decay amplitude ramp plus the four filter-gain envelopes.
func (d *DrumHitSynth) Hit(sampleNum uint64, strength float64) {
	d.hitPosition = d.rng.Float64() * d.hitRangeMax
	d.hitAngle = d.rng.Float64() * 2 * math.Pi
	for o := range d.modes {
		for z := range d.modes[o] {
			d.modes[o][z].phase = 0
		}
	}
	d.recomputeModes()

	hitAmp := d.strengthToAmp * strength
	sr := d.SampleRate()
	decayDelaySamps := uint64(d.decayDelay * sr)
	decayTimeSamps := uint64(d.decayTime * sr)

	d.Events.CancelRange(sampleNum+1, sampleNum+decayDelaySamps+decayTimeSamps+1)

	d.SetAmplitudeRamp(ramp.New(ramp.SCurve, hitAmp, d.transientTime))
	d.Events.Add(sampleNum+decayDelaySamps, AmplitudeEvent{ramp.New(d.decayShape, d.decayAmount*hitAmp, d.decayTime)})
	d.Events.Add(sampleNum+decayDelaySamps+decayTimeSamps, AmplitudeEvent{ramp.New(ramp.SCurve, 0, 0.001)})

	for i := range d.filts {
		d.filtGain[i] = ramp.New(ramp.SCurve, 6.0, 0.01)
	}

	d.RequestRefresh()
}
