package synth

import "github.com/jsongraph/scorewav/pkg/graph"

// Sinusoid is a SineSynth or CosineSynth: a mono phase-accumulator synth
// whose sample generator is the fast minimax sine or cosine (spec.md
// §4.6). The cosine field selects which.
type Sinusoid struct {
	Base
	cosine bool
}

// NewSineSynth creates a sine-wave synth.
func NewSineSynth(g *graph.Graph, frequency, amplitude float64) *Sinusoid {
	s := &Sinusoid{}
	s.Init(g, frequency, amplitude)
	return s
}

// NewCosineSynth creates a cosine-wave synth.
func NewCosineSynth(g *graph.Graph, frequency, amplitude float64) *Sinusoid {
	s := &Sinusoid{cosine: true}
	s.Init(g, frequency, amplitude)
	return s
}

func (Sinusoid) onFrequencyChange(float32, float64)    {}
func (Sinusoid) onAmplitudeChange(float32, float64)    {}
func (Sinusoid) onPhaseOffsetChange(float64, float64) {}

// NumChannels implements graph.AudioNode: sinusoid synths are mono.
func (s *Sinusoid) NumChannels() int { return 1 }

// SampleDelay implements graph.AudioNode: no latency.
func (s *Sinusoid) SampleDelay() int { return 0 }

// GetSamples implements graph.AudioNode.
func (s *Sinusoid) GetSamples(bufs [][]float32, nframes int, sr float64, _ graph.NodeID) bool {
	if len(bufs) == 0 {
		return false
	}
	s.SetSampleRate(sr)
	dt := 1.0 / sr
	buf := bufs[0]

	s.RunEvents(nframes, func(i int) {
		s.Increment(dt, s)
		amp := float32(s.Amplitude())
		phase := s.InstantaneousPhase()
		if s.cosine {
			buf[i] = amp * fastCos(phase)
		} else {
			buf[i] = amp * fastSin(phase)
		}
	})

	for ch := 1; ch < len(bufs); ch++ {
		copy(bufs[ch], buf)
	}
	return true
}
