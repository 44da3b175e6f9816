package reverb

import (
	"math"
	"math/rand"

	"github.com/jsongraph/scorewav/pkg/dsp/filter"
)

// diffuserStage and tankStage both operate on 8 parallel voices
// (spec.md §4.11).
const voiceCount = 8

// hadamard8 is the normalized 8x8 Hadamard matrix, built once at package
// init by the standard recursive doubling construction (H1=[1],
// H_{2n} = [[H_n,H_n],[H_n,-H_n]]), used as the diffuser's fixed spread
// transform.
var hadamard8 [voiceCount][voiceCount]float64

func init() {
	h := [][]float64{{1}}
	for len(h) < voiceCount {
		n := len(h)
		next := make([][]float64, 2*n)
		for i := range next {
			next[i] = make([]float64, 2*n)
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				next[i][j] = h[i][j]
				next[i][j+n] = h[i][j]
				next[i+n][j] = h[i][j]
				next[i+n][j+n] = -h[i][j]
			}
		}
		h = next
	}
	scale := 1.0 / math.Sqrt(float64(voiceCount))
	for i := 0; i < voiceCount; i++ {
		for j := 0; j < voiceCount; j++ {
			hadamard8[i][j] = h[i][j] * scale
		}
	}
}

// orthonormalMatrix builds a random 8x8 orthonormal matrix via
// Gram-Schmidt on Gaussian random vectors (spec.md §4.11), retrying any
// row whose remaining magnitude-squared falls below 1e-8 (a degenerate
// draw nearly in the span of the rows already chosen).
func orthonormalMatrix(rng *rand.Rand) [voiceCount][voiceCount]float64 {
	var rows [voiceCount][voiceCount]float64
	for i := 0; i < voiceCount; i++ {
		for {
			var v [voiceCount]float64
			for k := range v {
				v[k] = rng.NormFloat64()
			}
			for j := 0; j < i; j++ {
				dot := 0.0
				for k := range v {
					dot += v[k] * rows[j][k]
				}
				for k := range v {
					v[k] -= dot * rows[j][k]
				}
			}
			magSq := 0.0
			for _, x := range v {
				magSq += x * x
			}
			if magSq < 1e-8 {
				continue
			}
			norm := math.Sqrt(magSq)
			for k := range v {
				rows[i][k] = v[k] / norm
			}
			break
		}
	}
	return rows
}

// airFilter is a single-sample-at-a-time wrapper over filter.Biquad,
// used throughout the reverb where per-voice state is processed one
// sample at a time inside a feedback loop rather than over a buffer.
type airFilter struct {
	bq      *filter.Biquad
	scratch [1]float32
}

func newAirFilter() *airFilter {
	return &airFilter{bq: filter.NewBiquad(1)}
}

func (a *airFilter) process(x float32) float32 {
	a.scratch[0] = x
	a.bq.Process(a.scratch[:], 0)
	return a.scratch[0]
}

// diffuserVoice is one delay line inside a diffuser stage.
type diffuserVoice struct {
	buf      []float32
	pos      int
	delay    int
	filt     *airFilter
	gain     float32
}

func newDiffuserVoice(delaySamples int, gain float32, airFreq, sr float64) *diffuserVoice {
	v := &diffuserVoice{
		buf:   make([]float32, delaySamples+1),
		delay: delaySamples,
		filt:  newAirFilter(),
		gain:  gain,
	}
	v.filt.bq.SetLowpass(sr, airFreq, 0.707)
	return v
}

func (v *diffuserVoice) readWrite(in float32) float32 {
	out := v.buf[v.pos]
	v.buf[v.pos] = in
	v.pos++
	if v.pos >= len(v.buf) {
		v.pos = 0
	}
	return v.filt.process(out) * v.gain
}

// diffuserStage is one of the five series diffusers: 8 voices, a
// shuffle permutation with ±1 signs, and a Hadamard spread (spec.md
// §4.11).
type diffuserStage struct {
	voices [voiceCount]*diffuserVoice
	perm   [voiceCount]int
	sign   [voiceCount]float64
}

func newDiffuserStage(rng *rand.Rand, sr, rt60 float64, minMs, maxMs float64) *diffuserStage {
	s := &diffuserStage{}
	for i := 0; i < voiceCount; i++ {
		ms := minMs + rng.Float64()*(maxMs-minMs)
		delaySamples := int(ms * sr / 1000.0)
		if delaySamples < 1 {
			delaySamples = 1
		}
		delaySeconds := float64(delaySamples) / sr
		gain := math.Pow(10, -3*delaySeconds/rt60)
		airFreq := 2000.0 + 8000.0*(minMs/ms) // shorter lines pass more air
		s.voices[i] = newDiffuserVoice(delaySamples, float32(gain), airFreq, sr)
	}
	perm := rng.Perm(voiceCount)
	copy(s.perm[:], perm)
	for i := range s.sign {
		if rng.Intn(2) == 0 {
			s.sign[i] = 1
		} else {
			s.sign[i] = -1
		}
	}
	return s
}

// process runs one sample through the stage: read+delay each voice,
// shuffle with signs, spread through the Hadamard matrix, and feed the
// result back as each voice's next input.
func (s *diffuserStage) process(x float32) float32 {
	var tapped [voiceCount]float32
	in := x / voiceCount
	for i := 0; i < voiceCount; i++ {
		tapped[i] = s.voices[i].readWrite(in)
	}
	var shuffled [voiceCount]float64
	for i := 0; i < voiceCount; i++ {
		shuffled[i] = float64(tapped[s.perm[i]]) * s.sign[i]
	}
	var spread [voiceCount]float32
	var sum float32
	for i := 0; i < voiceCount; i++ {
		var acc float64
		for j := 0; j < voiceCount; j++ {
			acc += hadamard8[i][j] * shuffled[j]
		}
		spread[i] = float32(acc)
		sum += spread[i]
	}
	for i := 0; i < voiceCount; i++ {
		s.voices[i].buf[s.voices[i].pos] += spread[i]
	}
	return sum
}

// tank is the echo tank: 8 ~200ms delays mixed through a random
// orthonormal matrix scaled so the late decay matches RT60, band-shaped
// by a fixed "200ms air" filter per voice (spec.md §4.11).
type tank struct {
	lines  [voiceCount][]float32
	pos    [voiceCount]int
	delay  [voiceCount]int
	filts  [voiceCount]*airFilter
	matrix [voiceCount][voiceCount]float64
	gain   float64
}

func newTank(rng *rand.Rand, sr, rt60 float64) *tank {
	t := &tank{matrix: orthonormalMatrix(rng)}
	const baseMs = 200.0
	for i := 0; i < voiceCount; i++ {
		ms := baseMs + float64(i)*7.0 - 24.5 // spread around 200ms to decorrelate
		d := int(ms * sr / 1000.0)
		if d < 1 {
			d = 1
		}
		t.delay[i] = d
		t.lines[i] = make([]float32, d+1)
		t.filts[i] = newAirFilter()
		t.filts[i].bq.SetLowShelf(sr, 4000, 0.707, -6)
	}
	// -3*T/RT60 in dB over a ~200ms round trip so the tank's tail decays at RT60.
	t.gain = math.Pow(10, -3*(baseMs/1000.0)/rt60)
	return t
}

func (t *tank) process(x float32) float32 {
	var tapped [voiceCount]float32
	in := x / voiceCount
	for i := 0; i < voiceCount; i++ {
		tapped[i] = t.filts[i].process(t.lines[i][t.pos[i]])
		t.lines[i][t.pos[i]] = in
	}
	var mixed [voiceCount]float32
	var sum float32
	for i := 0; i < voiceCount; i++ {
		var acc float64
		for j := 0; j < voiceCount; j++ {
			acc += t.matrix[i][j] * float64(tapped[j])
		}
		mixed[i] = float32(acc * t.gain)
		sum += mixed[i]
	}
	for i := 0; i < voiceCount; i++ {
		t.lines[i][t.pos[i]] += mixed[i]
		t.pos[i]++
		if t.pos[i] >= len(t.lines[i]) {
			t.pos[i] = 0
		}
	}
	return sum
}

// channelDiffuseReverb is one channel's full chain: five diffusers in
// series feeding the echo tank.
type channelDiffuseReverb struct {
	stages [5]*diffuserStage
	tank   *tank
}

func newChannelDiffuseReverb(rng *rand.Rand, sr, rt60 float64) *channelDiffuseReverb {
	c := &channelDiffuseReverb{tank: newTank(rng, sr, rt60)}
	ranges := [5][2]float64{{5, 17}, {11, 29}, {19, 43}, {31, 61}, {47, 89}}
	for i := range c.stages {
		c.stages[i] = newDiffuserStage(rng, sr, rt60, ranges[i][0], ranges[i][1])
	}
	return c
}

func (c *channelDiffuseReverb) process(x float32) float32 {
	for _, s := range c.stages {
		x = s.process(x)
	}
	return c.tank.process(x)
}

// DiffuseReverb is the full FDN reverb from spec.md §4.11: five series
// diffusers feeding an echo tank, one independent chain per output
// channel. It is wired alongside, not instead of, the package's
// simpler FDN/Freeverb/Schroeder units — see pkg/fx/reverb.go.
type DiffuseReverb struct {
	left, right *channelDiffuseReverb
	wet, dry    float64
}

// NewDiffuseReverb builds a stereo DiffuseReverb tuned to decay over
// rt60 seconds at the given sample rate, seeded by rng (the orthonormal
// tank matrix and diffuser delay/shuffle randomisation both draw from
// it, matching spec.md §4.11's "generated at graph-build time").
func NewDiffuseReverb(rng *rand.Rand, sr, rt60 float64) *DiffuseReverb {
	return &DiffuseReverb{
		left:  newChannelDiffuseReverb(rng, sr, rt60),
		right: newChannelDiffuseReverb(rng, sr, rt60),
		wet:   0.35,
		dry:   1.0,
	}
}

// SetMix sets dry/wet balance.
func (r *DiffuseReverb) SetMix(dry, wet float64) { r.dry, r.wet = dry, wet }

// ProcessStereo runs one stereo sample through the reverb.
func (r *DiffuseReverb) ProcessStereo(l, rr float32) (float32, float32) {
	wl := r.left.process(l)
	wr := r.right.process(rr)
	return l*float32(r.dry) + wl*float32(r.wet), rr*float32(r.dry) + wr*float32(r.wet)
}
