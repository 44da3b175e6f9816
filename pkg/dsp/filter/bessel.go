package filter

import "math"

// BesselLowpass is a maximally-flat-group-delay fourth-order lowpass
// built from the normalised Bessel polynomial, bilinear-transformed the
// same way the package's other analog prototypes are (§4.7: "a recalc
// that produces a,b from a Laplace-domain prototype via a bilinear
// transform"). It is realised as two cascaded Biquads so the package's
// existing per-sample Process/ProcessMulti plumbing is reused unchanged.
type BesselLowpass struct {
	stage1, stage2 *Biquad
}

// besselQ holds the two second-order section Q values for a 4th-order
// Bessel filter (from the normalised Bessel polynomial's complex pole
// pairs); these are standard tabulated constants, not re-derived here.
const (
	besselQ1 = 0.805538
	besselQ2 = 0.521935
)

// NewBesselLowpass creates a fourth-order Bessel lowpass for channels.
func NewBesselLowpass(channels int) *BesselLowpass {
	return &BesselLowpass{
		stage1: NewBiquad(channels),
		stage2: NewBiquad(channels),
	}
}

// SetCutoff configures both cascaded sections for the given cutoff. Each
// section runs at its pole pair's natural frequency (1.5912 and 1.4192
// times the cutoff for the -3 dB-normalised prototype), kept below Nyquist.
func (b *BesselLowpass) SetCutoff(sampleRate, frequency float64) {
	limit := 0.49 * sampleRate
	b.stage1.SetLowpass(sampleRate, math.Min(frequency*1.5912, limit), besselQ1)
	b.stage2.SetLowpass(sampleRate, math.Min(frequency*1.4192, limit), besselQ2)
}

// Reset clears both stages' state.
func (b *BesselLowpass) Reset() {
	b.stage1.Reset()
	b.stage2.Reset()
}

// Process filters buffer for one channel through both cascaded sections.
func (b *BesselLowpass) Process(buffer []float32, channel int) {
	b.stage1.Process(buffer, channel)
	b.stage2.Process(buffer, channel)
}

// GroupDelaySamples approximates the filter's group delay at DC, used by
// nodes that must report SampleDelay upstream.
func (b *BesselLowpass) GroupDelaySamples(sampleRate, frequency float64) int {
	// A 4th-order Bessel's group delay at DC is ~2.11/wc for the
	// normalised prototype; convert to samples.
	wc := 2 * math.Pi * frequency
	return int(math.Round(2.11 / wc * sampleRate))
}
