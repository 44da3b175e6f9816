package dynamics

import (
	"math"

	"github.com/jsongraph/scorewav/pkg/dsp/oversample"
)

// GainComputer implements the antiderivative-antialiased (ADAA, first
// order) static gain curve: it integrates the linear gain G(|v|) from 0
// to x into U(x) and, for successive samples x_prev -> x, returns the
// secant slope (U(x)-U(x_prev))/(x-x_prev), the mean gain over that
// span, instead of evaluating G directly, falling back to G(avg) when
// the two samples are too close together for the secant to be
// numerically stable. U integrates the gain alone, not G(|x|)*x, so the
// result is a gain to multiply the signal by, not an output sample.
type GainComputer struct {
	thresholdDB float64
	ratio       float64
	kneeDB      float64

	xPrev float64
	uPrev float64
	have  bool

	tol float64
}

// NewGainComputer creates a gain computer with the given static curve.
func NewGainComputer(thresholdDB, ratio, kneeDB float64) *GainComputer {
	return &GainComputer{
		thresholdDB: thresholdDB,
		ratio:       math.Max(1.0, ratio),
		kneeDB:      math.Max(0.0, kneeDB),
		tol:         1e-6,
	}
}

func (g *GainComputer) SetThreshold(db float64) { g.thresholdDB = db }
func (g *GainComputer) SetRatio(r float64)       { g.ratio = math.Max(1.0, r) }
func (g *GainComputer) SetKnee(db float64)       { g.kneeDB = math.Max(0.0, db) }

// staticCurveDB returns the gain-reduction curve G, in dB, for an input
// level (also in dB): 0 below the knee, full ratio above it, smoothly
// interpolated (quadratic) through the knee region.
func (g *GainComputer) staticCurveDB(inputDB float64) float64 {
	half := g.kneeDB / 2
	switch {
	case inputDB < g.thresholdDB-half:
		return 0
	case inputDB > g.thresholdDB+half:
		return (inputDB - g.thresholdDB) * (1.0 - 1.0/g.ratio)
	default:
		if g.kneeDB <= 0 {
			return 0
		}
		t := (inputDB - (g.thresholdDB - half)) / g.kneeDB
		return t * t * g.kneeDB * (1.0 - 1.0/g.ratio)
	}
}

// antiderivative returns U(x), the integral of the linear gain G(|v|)
// over linear amplitude v from 0 to x (negated for x < 0), approximated by numerically integrating the dB-domain
// curve converted to a linear gain multiplier (closed-form for the
// hard/soft-knee curve above is piecewise quadratic/linear in dB, so a
// fine Riemann sum over the short [xPrev, x] span is both cheap and
// accurate enough for antialiasing purposes).
func (g *GainComputer) antiderivative(x float64) float64 {
	const steps = 8
	mag := math.Abs(x)
	if mag < 1e-9 {
		return 0
	}
	sum := 0.0
	prevGain := g.linearGain(0)
	step := mag / steps
	for i := 1; i <= steps; i++ {
		v := step * float64(i)
		gain := g.linearGain(v)
		sum += (gain + prevGain) / 2 * step
		prevGain = gain
	}
	if x < 0 {
		sum = -sum
	}
	return sum
}

// linearGain converts the dB-domain static curve to a linear multiplier
// at linear magnitude v.
func (g *GainComputer) linearGain(v float64) float64 {
	if v <= 0 {
		return 1
	}
	inputDB := 20 * math.Log10(v)
	reductionDB := g.staticCurveDB(inputDB)
	return math.Pow(10, -reductionDB/20)
}

// Process returns the instantaneous linear gain to apply to x, using the
// ADAA secant when consecutive samples differ enough, else falling back
// to the direct gain at their average.
func (g *GainComputer) Process(x float64) float64 {
	if !g.have {
		g.xPrev = x
		g.uPrev = g.antiderivative(x)
		g.have = true
		return g.linearGain(math.Abs(x))
	}

	u := g.antiderivative(x)
	var gain float64
	if math.Abs(x-g.xPrev) > g.tol {
		gain = (u - g.uPrev) / (x - g.xPrev)
	} else {
		avg := (x + g.xPrev) / 2
		gain = g.linearGain(math.Abs(avg))
	}

	g.xPrev = x
	g.uPrev = u
	return gain
}

// FilterForm selects the envelope filter's realisation.
type FilterForm int

const (
	TDF2 FilterForm = iota
	DF2
)

// EnvelopeFilter smooths a gain-computer output with a one-pole lowpass
// whose time constant is chosen per-sample from attack or release
// depending on whether the (unsmoothed) signal is rising or falling.
type EnvelopeFilter struct {
	sampleRate      float64
	attackCoeff     float64
	releaseCoeff    float64
	state           float64
	form            FilterForm
	prevCoeffChange float64 // TDF2 delay-by-one-sample bookkeeping
}

// NewEnvelopeFilter creates an envelope filter at the given sample rate.
func NewEnvelopeFilter(sampleRate float64) *EnvelopeFilter {
	e := &EnvelopeFilter{sampleRate: sampleRate, state: 1.0}
	e.SetTimes(0.005, 0.050)
	return e
}

// SetTimes sets attack/release times in seconds.
func (e *EnvelopeFilter) SetTimes(attack, release float64) {
	e.attackCoeff = math.Exp(-1.0 / (math.Max(attack, 1e-5) * e.sampleRate))
	e.releaseCoeff = math.Exp(-1.0 / (math.Max(release, 1e-4) * e.sampleRate))
}

// SetForm selects TDF2 or DF2 realisation (both are numerically
// equivalent for a one-pole; TDF2 is the default per §4.7).
func (e *EnvelopeFilter) SetForm(form FilterForm) { e.form = form }

// Process smooths one target gain value.
func (e *EnvelopeFilter) Process(target float64) float64 {
	coeff := e.releaseCoeff
	if target < e.state {
		coeff = e.attackCoeff // gain falling = signal rising = attack
	}
	e.state = coeff*e.state + (1-coeff)*target
	return e.state
}

// StereoMode selects how a Compressor's sidechain is derived from
// stereo input.
type StereoMode int

const (
	// LR processes left/right independently.
	LR StereoMode = iota
	// M processes only the mid (L+R)/2 signal; side passes through.
	M
	// MS processes mid and side with independent settings.
	MS
)

// ADAACompressor is the graph-facing compressor described in §4.10: an
// ADAA gain computer, an asymmetric envelope filter, makeup gain, and
// stereo mode handling with mid/side conversion done internally.
type ADAACompressor struct {
	gc         *GainComputer
	gcSide     *GainComputer
	env        *EnvelopeFilter
	envSide    *EnvelopeFilter
	makeupDB   float64
	mode       StereoMode
	chain      *oversample.Chain
	lastReduce float64
}

// NewADAACompressor creates a compressor at sampleRate with the given
// static curve.
func NewADAACompressor(sampleRate, thresholdDB, ratio, kneeDB float64) *ADAACompressor {
	return &ADAACompressor{
		gc:      NewGainComputer(thresholdDB, ratio, kneeDB),
		gcSide:  NewGainComputer(thresholdDB, ratio, kneeDB),
		env:     NewEnvelopeFilter(sampleRate),
		envSide: NewEnvelopeFilter(sampleRate),
		chain:   oversample.New(2), // constant 256-sample latency (2x2x stage pairs across L/R sidechain+signal)
		mode:    LR,
	}
}

// SampleDelay reports the compressor's constant latency: both sidechain
// and signal path run through ×2 oversampling (§4.10).
func (c *ADAACompressor) SampleDelay() int { return 2 * c.chain.SampleDelay() }

func (c *ADAACompressor) SetThreshold(db float64) { c.gc.SetThreshold(db); c.gcSide.SetThreshold(db) }
func (c *ADAACompressor) SetRatio(r float64)       { c.gc.SetRatio(r); c.gcSide.SetRatio(r) }
func (c *ADAACompressor) SetKnee(db float64)       { c.gc.SetKnee(db); c.gcSide.SetKnee(db) }
func (c *ADAACompressor) SetAttackRelease(a, r float64) {
	c.env.SetTimes(a, r)
	c.envSide.SetTimes(a, r)
}
func (c *ADAACompressor) SetMakeup(db float64) { c.makeupDB = db }
func (c *ADAACompressor) SetStereoMode(m StereoMode) { c.mode = m }
func (c *ADAACompressor) GainReductionDB() float64   { return c.lastReduce }

// Process compresses a stereo buffer pair in place, oversampled ×2.
func (c *ADAACompressor) Process(left, right []float32) {
	makeup := float32(math.Pow(10, c.makeupDB/20))

	switch c.mode {
	case LR:
		c.processChannel(left, c.gc, c.env)
		c.processChannel(right, c.gcSide, c.envSide)
	case M:
		mid := make([]float32, len(left))
		side := make([]float32, len(left))
		for i := range left {
			mid[i] = (left[i] + right[i]) / 2
			side[i] = (left[i] - right[i]) / 2
		}
		c.processChannel(mid, c.gc, c.env)
		for i := range left {
			left[i] = mid[i] + side[i]
			right[i] = mid[i] - side[i]
		}
	case MS:
		mid := make([]float32, len(left))
		side := make([]float32, len(left))
		for i := range left {
			mid[i] = (left[i] + right[i]) / 2
			side[i] = (left[i] - right[i]) / 2
		}
		c.processChannel(mid, c.gc, c.env)
		c.processChannel(side, c.gcSide, c.envSide)
		for i := range left {
			left[i] = mid[i] + side[i]
			right[i] = mid[i] - side[i]
		}
	}

	for i := range left {
		left[i] *= makeup
		right[i] *= makeup
	}
}

func (c *ADAACompressor) processChannel(buf []float32, gc *GainComputer, env *EnvelopeFilter) {
	up := c.chain.Upsample(buf)
	for i, x := range up {
		g := gc.Process(float64(x))
		g = env.Process(g)
		c.lastReduce = 20 * math.Log10(math.Max(g, 1e-9))
		up[i] = float32(float64(x) * g)
	}
	down := c.chain.Downsample(up)
	copy(buf, down[:len(buf)])
}
