package distortion

import (
	"math"

	"github.com/jsongraph/scorewav/pkg/dsp/oversample"
)

// ChebyMode selects the harmonic-weighting law for a ChebyShaper.
type ChebyMode int

const (
	InverseSquare ChebyMode = iota
	InverseSquareGaussianBoost
	InverseCube
	InverseQuart
)

// ChebyShaper is a Chebyshev-polynomial waveshaper wrapped in an
// oversampler (§4.9): it evaluates f(x) = sum_n c_n*T_n(x) for order
// harmonics, normalised so f(0)=0 and f(1)=1, processing at the
// oversampled rate to keep the generated harmonics below Nyquist.
type ChebyShaper struct {
	order  int
	mode   ChebyMode
	coeffs []float64
	norm   float64

	chain *oversample.Chain
}

// NewChebyShaper builds a shaper for the given order (2-6, yielding
// 4-64 harmonics via the oversampled nonlinearity) and harmonic-weight
// mode, oversampled by factor (a power of two, e.g. 8).
func NewChebyShaper(order int, mode ChebyMode, oversampleFactor int) *ChebyShaper {
	if order < 2 {
		order = 2
	} else if order > 6 {
		order = 6
	}
	c := &ChebyShaper{
		order: order,
		mode:  mode,
		chain: oversample.New(oversampleFactor),
	}
	c.coeffs = make([]float64, order+1)
	for n := 0; n <= order; n++ {
		c.coeffs[n] = harmonicWeight(mode, n)
	}
	c.coeffs[0] = -c.eval(0) // T_0 = 1, so this offset makes f(0) = 0
	c.norm = 1.0
	f1 := c.eval(1.0)
	if f1 != 0 {
		c.norm = 1.0 / f1
	}
	return c
}

// harmonicWeight implements the four named weighting laws.
func harmonicWeight(mode ChebyMode, n int) float64 {
	if n == 0 {
		return 0
	}
	fn := float64(n)
	switch mode {
	case InverseSquare:
		return 1.0 / (fn * fn)
	case InverseSquareGaussianBoost:
		return (1.0 / (fn * fn)) * math.Exp(-math.Pow(fn-2, 2)/8)
	case InverseCube:
		return 1.0 / (fn * fn * fn)
	case InverseQuart:
		return 1.0 / (fn * fn * fn * fn)
	default:
		return 1.0 / (fn * fn)
	}
}

// chebyT evaluates the n-th Chebyshev polynomial of the first kind via
// the standard recurrence.
func chebyT(n int, x float64) float64 {
	if n == 0 {
		return 1
	}
	if n == 1 {
		return x
	}
	t0, t1 := 1.0, x
	for i := 2; i <= n; i++ {
		t0, t1 = t1, 2*x*t1-t0
	}
	return t1
}

func (c *ChebyShaper) eval(x float64) float64 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	sum := 0.0
	for n, w := range c.coeffs {
		sum += w * chebyT(n, x)
	}
	return sum
}

// SampleDelay reports the oversampler chain's intrinsic latency.
func (c *ChebyShaper) SampleDelay() int { return c.chain.SampleDelay() }

// Process runs buffer through the waveshaper: upsample, shape, downsample.
func (c *ChebyShaper) Process(buffer []float32) {
	up := c.chain.Upsample(buffer)
	for i, x := range up {
		up[i] = float32(c.eval(float64(x)) * c.norm)
	}
	down := c.chain.Downsample(up)
	copy(buffer, down[:len(buffer)])
}
