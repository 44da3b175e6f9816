package renderer

import (
	"github.com/jsongraph/scorewav/pkg/dsp/gain"
	"github.com/jsongraph/scorewav/pkg/graph"
	"github.com/jsongraph/scorewav/pkg/interpreter"
	"github.com/jsongraph/scorewav/pkg/ramp"
	"github.com/jsongraph/scorewav/pkg/synth"
)

// noteEvent is one note resolved to absolute render-timeline units.
type noteEvent struct {
	startSec float64
	durSec   float64
	freqHz   float64
	amp      float64
}

// computeNoteEvents walks a part's notes.values under its timing mode
// (spec.md §4.12, §6), producing absolute start/duration/frequency/
// amplitude quadruples ready to schedule onto a voice.
//
// Absolute timing takes each entry's time as a beat position directly;
// relative timing treats it as a delta from the previous note's start;
// intuitive timing does the same but sizes the note's own sustain as
// beat_rel * articulation beats, where beat_rel is that same delta from
// the previous note's start, rather than a fixed notes.dur.
func computeNoteEvents(notes interpreter.Notes, key, tempo float64) ([]noteEvent, error) {
	mode, err := interpreter.ParseTiming(notes.Timing)
	if err != nil {
		return nil, err
	}
	secondsPerBeat := 60.0 / tempo

	minDurSec := 0.05
	if notes.MinDuration != nil {
		minDurSec = *notes.MinDuration * secondsPerBeat
	}
	defaultDurBeats := 1.0
	if notes.Dur != nil {
		defaultDurBeats = *notes.Dur
	}
	transpose := 0.0
	if notes.Transpose != nil {
		transpose = *notes.Transpose
	}

	out := make([]noteEvent, len(notes.Values))
	cumulative := 0.0
	for i, n := range notes.Values {
		var startBeat, durSec float64
		switch mode {
		case interpreter.Absolute:
			startBeat = n.Time
			durSec = defaultDurBeats * secondsPerBeat
		case interpreter.Relative:
			cumulative += n.Time
			startBeat = cumulative
			durSec = defaultDurBeats * secondsPerBeat
		case interpreter.Intuitive:
			cumulative += n.Time
			startBeat = cumulative
			durSec = n.Time * n.Art * secondsPerBeat
		}
		if durSec < minDurSec {
			durSec = minDurSec
		}

		freq, err := frequencyForPitch(notes.Tuning, key, n.Pitch, transpose)
		if err != nil {
			return nil, err
		}

		amp := 1.0
		if n.HasAmp {
			amp = n.Amp
		}
		if notes.DB {
			amp = gain.DbToLinear(amp)
		}

		out[i] = noteEvent{startSec: startBeat * secondsPerBeat, durSec: durSec, freqHz: freq, amp: amp}
	}
	return out, nil
}

// hitVoice is implemented by the percussive/additive hit synths: a note
// re-triggers the existing voice rather than ramping frequency.
type hitVoice interface {
	graph.AudioNode
	SetSampleRate(float64)
	Hit(sampleNum uint64, strength float64)
}

// sustainedVoice is implemented by every synth.Base-embedding node: a
// note installs a frequency jump and an attack/release amplitude
// envelope on the shared event map.
type sustainedVoice interface {
	graph.AudioNode
	SetSampleRate(float64)
	Schedule(at uint64, e graph.Event)
}

// scheduleNotes installs a part's resolved note events onto its voice
// node, choosing the hit-retrigger or ramped-sustain strategy by which
// interface the concrete synth satisfies.
func scheduleNotes(node graph.AudioNode, events []noteEvent, sr float64) {
	const attackTime = 0.005
	const releaseTime = 0.02

	switch n := node.(type) {
	case hitVoice:
		n.SetSampleRate(sr)
		for _, ev := range events {
			n.Hit(uint64(ev.startSec*sr), ev.amp)
		}
	case sustainedVoice:
		n.SetSampleRate(sr)
		for _, ev := range events {
			startSample := uint64(ev.startSec * sr)
			endSample := uint64((ev.startSec + ev.durSec) * sr)
			n.Schedule(startSample, synth.FrequencyEvent{Ramp: ramp.New(ramp.Instant, ev.freqHz, 0)})
			n.Schedule(startSample, synth.AmplitudeEvent{Ramp: ramp.New(ramp.SCurve, ev.amp, attackTime)})
			if endSample > startSample {
				n.Schedule(endSample, synth.AmplitudeEvent{Ramp: ramp.New(ramp.SCurve, 0, releaseTime)})
			}
		}
	}
}

// songLengthSeconds finds the latest note-off across every part, so the
// renderer knows how many chunks to pull before stopping.
func songLengthSeconds(score *interpreter.Score) (float64, error) {
	tempo := *score.Meta.Tempo
	key := *score.Meta.Key
	length := 0.0
	for _, part := range score.Parts {
		events, err := computeNoteEvents(part.Notes, key, tempo)
		if err != nil {
			return 0, err
		}
		for _, ev := range events {
			end := ev.startSec + ev.durSec
			if end > length {
				length = end
			}
		}
	}
	return length, nil
}
