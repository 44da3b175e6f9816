// Package synth implements the oscillator family that forms the graph's
// leaf nodes: phase-accumulator synths driven by ramped frequency,
// amplitude and phase-offset parameters, scheduled through the same
// sample-indexed event map every other node in the graph uses.
package synth

import (
	"math"

	"github.com/jsongraph/scorewav/pkg/graph"
	"github.com/jsongraph/scorewav/pkg/ramp"
)

// hooks a concrete synth implements to react to a ramp crossing (or a
// frequency change landing exactly, since frequency's delta_phase must be
// recomputed whenever it moves).
type hooks interface {
	onFrequencyChange(freq float32, dt float64)
	onAmplitudeChange(amp float32, dt float64)
	onPhaseOffsetChange(offset float64, dt float64)
}

// Base holds the frequency/amplitude/phase-offset ramp trio and phase
// accumulator shared by every concrete synth (spec.md §4.6). Base itself
// embeds graph.ControlObject and graph.BaseNode; concrete types embed
// Base and implement the hooks
// interface (no-ops are fine) plus AudioNode.GetSamples.
type Base struct {
	graph.ControlObject
	graph.BaseNode

	g *graph.Graph

	frequency   float64
	amplitude   float64
	phase       float64
	phaseOffset float64
	deltaPhase  float64

	freqRamp  *ramp.Ramp
	ampRamp   *ramp.Ramp
	phaseRamp *ramp.Ramp

	lastSampleRate float64
}

// Init must be called from a concrete synth's constructor, with the Graph
// the synth will be added to (so it can activate events targeting itself).
func (s *Base) Init(g *graph.Graph, frequency, amplitude float64) {
	graph.InitControlObject(&s.ControlObject)
	s.g = g
	s.frequency = frequency
	s.amplitude = amplitude
	s.freqRamp = ramp.New(ramp.Instant, frequency, 0)
	s.ampRamp = ramp.New(ramp.Instant, amplitude, 0)
	s.phaseRamp = ramp.New(ramp.Instant, 0, 0)
}

func (s *Base) Frequency() float64 { return s.frequency }
func (s *Base) Amplitude() float64 { return s.amplitude }

// SetFrequencyRamp installs a new ramp to drive the frequency parameter.
func (s *Base) SetFrequencyRamp(r *ramp.Ramp) { s.freqRamp = r }

// SetAmplitudeRamp installs a new ramp to drive the amplitude parameter.
func (s *Base) SetAmplitudeRamp(r *ramp.Ramp) { s.ampRamp = r }

// SetPhaseOffsetRamp installs a new ramp to drive the phase-offset parameter.
func (s *Base) SetPhaseOffsetRamp(r *ramp.Ramp) { s.phaseRamp = r }

// InstantaneousPhase returns phase + phase_offset folded to [0, 1).
func (s *Base) InstantaneousPhase() float64 {
	inst := s.phaseOffset + s.phase
	return (s.phase - math.Floor(inst)) + s.phaseOffset
}

// Increment runs one sample's worth of ramp-stepping and phase accumulation
// as described in spec.md §4.6, notifying h of any parameter changes.
func (s *Base) Increment(dt float64, h hooks) {
	newFreq := s.freqRamp.Step(dt, s.frequency, s.lastSampleRate)
	if newFreq != s.frequency || s.deltaPhase != newFreq*dt {
		s.frequency = newFreq
		s.deltaPhase = s.frequency * dt
		h.onFrequencyChange(float32(s.frequency), dt)
	}

	nextPhase := s.phase + s.deltaPhase
	s.phase = (s.phase - math.Floor(nextPhase)) + s.deltaPhase

	newAmp := s.ampRamp.Step(dt, s.amplitude, s.lastSampleRate)
	if newAmp != s.amplitude {
		s.amplitude = newAmp
		h.onAmplitudeChange(float32(s.amplitude), dt)
	}

	newOffset := s.phaseRamp.Step(dt, s.phaseOffset, s.lastSampleRate)
	if newOffset != s.phaseOffset {
		wrapped := newOffset - math.Floor(newOffset)
		s.phaseOffset = wrapped
		h.onPhaseOffsetChange(s.phaseOffset, dt)
	}
}

// RunEvents fires this sample window's scheduled events and drives
// perSample, using the Graph this synth was Init'd with.
func (s *Base) RunEvents(nframes int, perSample func(i int)) {
	s.Advance(s.g, s.Self(), nframes, perSample)
}

// Graph returns the Graph this synth was Init'd with.
func (s *Base) Graph() *graph.Graph { return s.g }

// SetSampleRate records the render sample rate so per-event time-to-sample
// conversions (e.g. a drum hit's decay schedule) can use it.
func (s *Base) SetSampleRate(sr float64) { s.lastSampleRate = sr }

// Schedule installs e to fire at absolute sample index at, on this
// synth's own event map — the hook the interpreter's note scheduler
// uses to turn a note into a (sample_index, event) pair (spec.md §4.12).
func (s *Base) Schedule(at uint64, e graph.Event) { s.Events.Add(at, e) }

// SampleRate returns the last sample rate GetSamples was called with.
func (s *Base) SampleRate() float64 { return s.lastSampleRate }


// FrequencyEvent installs a new frequency ramp on Activate.
type FrequencyEvent struct{ Ramp *ramp.Ramp }

// AmplitudeEvent installs a new amplitude ramp on Activate.
type AmplitudeEvent struct{ Ramp *ramp.Ramp }

// PhaseOffsetEvent installs a new phase-offset ramp on Activate.
type PhaseOffsetEvent struct{ Ramp *ramp.Ramp }

// rampSettable is implemented by every concrete synth node so the generic
// parameter events above can apply without a type switch per synth.
type rampSettable interface {
	SetFrequencyRamp(*ramp.Ramp)
	SetAmplitudeRamp(*ramp.Ramp)
	SetPhaseOffsetRamp(*ramp.Ramp)
}

func (e FrequencyEvent) Activate(g *graph.Graph, target graph.NodeID, _ uint64) {
	if n, ok := g.Resolve(target).(rampSettable); ok {
		n.SetFrequencyRamp(e.Ramp)
	}
}

func (e AmplitudeEvent) Activate(g *graph.Graph, target graph.NodeID, _ uint64) {
	if n, ok := g.Resolve(target).(rampSettable); ok {
		n.SetAmplitudeRamp(e.Ramp)
	}
}

func (e PhaseOffsetEvent) Activate(g *graph.Graph, target graph.NodeID, _ uint64) {
	if n, ok := g.Resolve(target).(rampSettable); ok {
		n.SetPhaseOffsetRamp(e.Ramp)
	}
}
