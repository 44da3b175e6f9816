package filter

import "math"

// Ladder implements a four-pole Moog-style transistor ladder lowpass,
// built the same way the package's Biquad/SVF types are: plain arrays of
// per-channel state, a recalc step driven by sampleRate/frequency/q, and
// a per-sample Process loop with no allocations.
type Ladder struct {
	g         float32 // one-pole coefficient from the bilinear transform
	resonance float32 // feedback amount, roughly 0-4 (self-oscillation near 4)
	drive     float32

	stage []([4]float32) // per-channel: 4 cascaded one-pole states
}

// NewLadder creates a ladder filter for the given channel count.
func NewLadder(channels int) *Ladder {
	return &Ladder{
		drive: 1.0,
		stage: make([][4]float32, channels),
	}
}

// Reset clears filter state.
func (l *Ladder) Reset() {
	for i := range l.stage {
		l.stage[i] = [4]float32{}
	}
}

// SetCutoff sets the cutoff frequency.
func (l *Ladder) SetCutoff(sampleRate, frequency float64) {
	omega := 2.0 * math.Pi * frequency / sampleRate
	l.g = float32(omega / (1.0 + omega)) // one-pole bilinear approx
}

// SetResonance sets feedback amount in [0, 4]; 4 approaches self-oscillation.
func (l *Ladder) SetResonance(resonance float64) {
	if resonance < 0 {
		resonance = 0
	} else if resonance > 4 {
		resonance = 4
	}
	l.resonance = float32(resonance)
}

// SetDrive sets the input saturation drive.
func (l *Ladder) SetDrive(drive float64) {
	l.drive = float32(math.Max(0.1, drive))
}

// Process filters a buffer for one channel in place.
func (l *Ladder) Process(buffer []float32, channel int) {
	s := l.stage[channel]
	g := l.g
	k := l.resonance

	for i, x := range buffer {
		driven := float32(math.Tanh(float64(x * l.drive)))
		fb := driven - k*s[3]

		s[0] += g * (float32(math.Tanh(float64(fb))) - s[0])
		s[1] += g * (s[0] - s[1])
		s[2] += g * (s[1] - s[2])
		s[3] += g * (s[2] - s[3])

		buffer[i] = s[3]
	}

	l.stage[channel] = s
}
