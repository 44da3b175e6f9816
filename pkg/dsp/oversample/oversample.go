// Package oversample implements the 44.1 kHz-family half-band
// interpolator/decimator chain used to band-limit synths and waveshapers
// before nonlinear processing, and to delay-align ring-modulated joins.
//
// The per-stage kernels follow the teacher's own biquad/FIR math style
// (windowed-sinc design evaluated once at construction, convolved per
// sample in the hot path) applied to FIR halfband filters instead of
// IIR biquads, since no file in the retrieval pack implements a
// polyphase halfband oversampler directly — see DESIGN.md.
package oversample

import "math"

// stage is one 1:2 interpolation/decimation halfband filter.
type stage struct {
	kernel []float32
	delay  int
}

// newStage builds a symmetric windowed-sinc lowpass halfband kernel with
// the given odd tap count, cut at Nyquist/2 of the *upsampled* rate.
func newStage(taps int) *stage {
	if taps%2 == 0 {
		taps++
	}
	kernel := make([]float32, taps)
	mid := taps / 2
	for i := 0; i < taps; i++ {
		n := float64(i - mid)
		var sinc float64
		if n == 0 {
			sinc = 0.5 // cutoff at Fs/4 of the doubled rate == half-band
		} else {
			sinc = math.Sin(math.Pi*n/2) / (math.Pi * n)
		}
		// Blackman window for low ripple.
		w := 0.42 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(taps-1)) + 0.08*math.Cos(4*math.Pi*float64(i)/float64(taps-1))
		kernel[i] = float32(sinc * w)
	}
	return &stage{kernel: kernel, delay: mid}
}

// up zero-stuffs in by 2 and convolves with the kernel, scaled by 2 to
// preserve passband amplitude after zero-stuffing.
func (s *stage) up(in []float32) []float32 {
	n := len(in)
	stuffed := make([]float32, n*2)
	for i, v := range in {
		stuffed[i*2] = v * 2
	}
	return convolve(stuffed, s.kernel)
}

// down convolves in with the kernel then decimates by 2.
func (s *stage) down(in []float32) []float32 {
	filtered := convolve(in, s.kernel)
	out := make([]float32, len(filtered)/2)
	for i := range out {
		out[i] = filtered[i*2]
	}
	return out
}

func convolve(in, kernel []float32) []float32 {
	out := make([]float32, len(in))
	half := len(kernel) / 2
	for i := range in {
		var acc float32
		for k, kv := range kernel {
			j := i + k - half
			if j >= 0 && j < len(in) {
				acc += in[j] * kv
			}
		}
		out[i] = acc
	}
	return out
}

// Chain is a composite ×2^levels oversampler: its first stage uses a
// 256-ish tap kernel (§4.8's "1<->2 conversion"), subsequent stages use
// progressively shorter halfband kernels (§4.8's "24- to 16-tap" stages).
type Chain struct {
	stages []*stage
	factor int
	delay  int
}

// New builds a chain for the given factor, which must be a power of two
// in [2, 128].
func New(factor int) *Chain {
	c := &Chain{factor: 1}
	for c.factor < factor {
		taps := 257
		if c.factor >= 2 {
			taps = 17 // 2<->4 and beyond use a shorter halfband kernel
		}
		s := newStage(taps)
		c.stages = append(c.stages, s)
		c.delay += s.delay
		c.factor *= 2
	}
	return c
}

// Factor returns the total oversampling ratio.
func (c *Chain) Factor() int { return c.factor }

// SampleDelay returns the chain's fixed intrinsic latency in samples at
// the base (non-oversampled) rate, which callers must report upstream so
// joins can align peer inputs (§4.8).
func (c *Chain) SampleDelay() int { return c.delay }

// Upsample raises in to the oversampled rate.
func (c *Chain) Upsample(in []float32) []float32 {
	cur := in
	for _, s := range c.stages {
		cur = s.up(cur)
	}
	return cur
}

// Downsample reduces in (already at the oversampled rate) back to the
// base rate.
func (c *Chain) Downsample(in []float32) []float32 {
	cur := in
	for i := len(c.stages) - 1; i >= 0; i-- {
		cur = c.stages[i].down(cur)
	}
	return cur
}
