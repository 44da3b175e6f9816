// Package ramp implements the time-parameterised scalar interpolator used
// to turn scheduled parameter events into per-sample trajectories.
package ramp

import "math"

// Shape selects the interpolation curve a Ramp follows from origin to
// target. The Hit family are precomputed transient polynomials for
// percussive envelopes (they overshoot past 1.0 and settle back to it).
type Shape int

const (
	Instant Shape = iota
	Linear
	QuarterSin
	SCurve
	SCurveEqualPower
	Hit
	Hit262
	Hit272
	Hit282
	Hit292
	Hit2A2
	Hit2624
	LogScaleLinear
	LogScaleSCurve
	LogScaleHalfSin
	Mod
	Parabola
)

// Source supplies a single sample per Step call when a Ramp's shape is Mod.
// Graph nodes that can act as modulation sources implement this directly
// so the ramp package has no dependency on the graph package.
type Source interface {
	NextModSample(sampleRate float64) float32
}

// Ramp interpolates a float64 parameter from an origin value (captured
// lazily on the first Step) to a target value over time_total seconds.
type Ramp struct {
	shape      Shape
	target     float64
	timeTotal  float64
	timeLeft   float64
	origin     float64
	haveOrigin bool

	modSource Source
	modAmount float64

	value float64
	done  bool
}

// New creates a ramp to target over durationSeconds using shape. The
// origin is captured on the first Step call from whatever value the
// caller passes in.
func New(shape Shape, target, durationSeconds float64) *Ramp {
	if durationSeconds < 0 {
		durationSeconds = 0
	}
	return &Ramp{
		shape:     shape,
		target:    target,
		timeTotal: durationSeconds,
		timeLeft:  durationSeconds,
	}
}

// NewMod creates a Mod-shape ramp: every Step adds modAmount*source.Sample
// to the base value instead of interpolating toward a target.
func NewMod(source Source, modAmount float64) *Ramp {
	return &Ramp{
		shape:     Mod,
		modSource: source,
		modAmount: modAmount,
		timeTotal: math.Inf(1),
		timeLeft:  math.Inf(1),
	}
}

// Done reports whether the ramp has reached its target (or, for Mod
// ramps, is always false since they never complete).
func (r *Ramp) Done() bool { return r.done }

// Value returns the current interpolated value without advancing time.
func (r *Ramp) Value() float64 { return r.value }

// Step advances the ramp by dt seconds from the given current parameter
// value (used to capture origin on first call) and returns the new value.
func (r *Ramp) Step(dt float64, currentValue float64, sampleRate float64) float64 {
	if !r.haveOrigin {
		r.origin = currentValue
		r.value = currentValue
		r.haveOrigin = true
	}

	if r.shape == Mod {
		mod := float32(0)
		if r.modSource != nil {
			mod = r.modSource.NextModSample(sampleRate)
		}
		r.value = currentValue + r.modAmount*float64(mod)
		return r.value
	}

	if r.done {
		return r.value
	}

	r.timeLeft -= dt
	if r.timeLeft <= 0 {
		r.timeLeft = 0
		r.done = true
		r.value = r.target
		return r.value
	}

	u := 0.0
	if r.timeTotal > 0 {
		u = (r.timeTotal - r.timeLeft) / r.timeTotal
	}
	if u < 0 {
		u = 0
	} else if u > 1 {
		u = 1
	}

	f := shapeFraction(r.shape, u)

	var next float64
	switch r.shape {
	case LogScaleLinear, LogScaleSCurve, LogScaleHalfSin:
		if r.origin <= 0 || r.target <= 0 {
			next = r.origin + f*(r.target-r.origin) // undefined case: fall back to linear
		} else {
			next = r.origin * math.Pow(r.target/r.origin, f)
		}
	default:
		next = r.origin + f*(r.target-r.origin)
	}

	// Snapping: once the step would cross the target, clamp and halt.
	if (r.target >= r.origin && next >= r.target) || (r.target < r.origin && next <= r.target) {
		next = r.target
		r.done = true
	}

	r.value = next
	return r.value
}

// shapeFraction evaluates f(u) in [0,1] (or, for Hit shapes, a transient
// that peaks above 1 before returning to 1) for the given shape.
func shapeFraction(s Shape, u float64) float64 {
	switch s {
	case Instant:
		if u > 0 {
			return 1
		}
		return 0
	case Linear:
		return u
	case QuarterSin:
		return math.Sin(math.Pi / 2 * u)
	case SCurve:
		return 3*u*u - 2*u*u*u
	case SCurveEqualPower:
		// Quintic equal-power crossfade: f(0.5) = 1/sqrt(2), zero 2nd
		// derivative at u=1.
		return equalPowerQuintic(u)
	case Hit, Hit262, Hit272, Hit282, Hit292, Hit2A2, Hit2624:
		return hitTransient(s, u)
	case LogScaleLinear:
		return u
	case LogScaleSCurve:
		return 3*u*u - 2*u*u*u
	case LogScaleHalfSin:
		return math.Sin(math.Pi / 2 * u)
	case Parabola:
		return 1 - (1-u)*(1-u)
	default:
		return u
	}
}

// equalPowerQuintic implements a quintic crossfade curve satisfying
// f(0)=0, f(1)=1, f'(0)=f'(1)=0, f''(1)=0 and f(0.5) = 1/sqrt(2).
func equalPowerQuintic(u float64) float64 {
	// f(u) = a2*u^2 + a3*u^3 + a4*u^4 + a5*u^5: the conditions at u=1 fix
	// a2..a4 in terms of a5, and f(0.5) = 1/sqrt(2) gives a5 = 22 - 16*sqrt(2).
	const (
		a5 = 22 - 16*math.Sqrt2
		a4 = 3 - 3*a5
		a3 = -8 + 3*a5
		a2 = 6 - a5
	)
	return u * u * (a2 + u*(a3+u*(a4+u*a5)))
}

// hitTransientPeaks maps each Hit* shape to the time fraction (of the
// total ramp) at which its polynomial peaks, and the peak magnitude.
// The numeric suffixes (262, 272, ...) name distinct precomputed
// transient envelopes from the original synth's percussion model; they
// differ only in attack sharpness and peak height.
var hitTransientPeaks = map[Shape]struct {
	peakAt  float64
	peakMag float64
}{
	Hit:     {0.1, 2.0},
	Hit262:  {0.08, 2.0},
	Hit272:  {0.1, 1.9},
	Hit282:  {0.12, 1.8},
	Hit292:  {0.1, 2.1},
	Hit2A2:  {0.09, 2.0},
	Hit2624: {0.1, 2.0},
}

// hitTransient evaluates a percussive attack-then-settle polynomial: rises
// to peakMag by u=peakAt, then eases back down to 1.0 by u=1.
func hitTransient(s Shape, u float64) float64 {
	p := hitTransientPeaks[s]
	if u <= p.peakAt {
		if p.peakAt == 0 {
			return p.peakMag
		}
		t := u / p.peakAt
		// Smooth rise 0 -> peakMag using smoothstep.
		return p.peakMag * (t * t * (3 - 2*t))
	}
	t := (u - p.peakAt) / (1 - p.peakAt)
	if t > 1 {
		t = 1
	}
	// Smooth settle peakMag -> 1.0.
	ease := t * t * (3 - 2*t)
	return p.peakMag + ease*(1.0-p.peakMag)
}
