// Package sample provides pooled sample-buffer storage and PCM conversion
// for the audio render graph.
package sample

import (
	"math"
	"math/rand"
)

// Sample is a single 32-bit float audio value, nominally in [-1.0, 1.0].
type Sample = float32

// Buf is a channel-major buffer: Buf.Data[channel] is a contiguous slice of
// Frames samples. Buffers are obtained from a Pool and returned when no
// longer needed; callers must not retain a reference after Release.
type Buf struct {
	Data     [][]float32
	Channels int
	Frames   int

	pool *Pool
}

// alloc builds the channel slices for a freshly sized Buf.
func alloc(channels, frames int) [][]float32 {
	data := make([][]float32, channels)
	backing := make([]float32, channels*frames)
	for ch := 0; ch < channels; ch++ {
		data[ch] = backing[ch*frames : (ch+1)*frames]
	}
	return data
}

// Reinit re-sizes the buffer in place. If the dimensions are unchanged the
// existing storage is reused; zero controls whether the content is cleared.
func (b *Buf) Reinit(channels, frames int, zero bool) {
	if b.Channels != channels || b.Frames != frames {
		b.Data = alloc(channels, frames)
		b.Channels = channels
		b.Frames = frames
		return
	}
	if zero {
		b.Clear()
	}
}

// Clear zeroes every channel.
func (b *Buf) Clear() {
	for ch := range b.Data {
		row := b.Data[ch]
		for i := range row {
			row[i] = 0
		}
	}
}

// Channel returns the i-th channel, or nil if out of range.
func (b *Buf) Channel(i int) []float32 {
	if i < 0 || i >= len(b.Data) {
		return nil
	}
	return b.Data[i]
}

// Release returns the buffer to its owning pool, if any.
func (b *Buf) Release() {
	if b.pool != nil {
		b.pool.Put(b)
	}
}

// ToPCM16 converts a single channel to signed 16-bit PCM, applying
// triangular-PDF dither uniform on [-0.5, 0.5] LSB and clipping to the
// int16 range. rng supplies the two uniform draws that form the
// triangular distribution (sum of two independent uniforms).
func ToPCM16(in []float32, out []int16, rng *rand.Rand) {
	const scale = 32767.0
	for i, v := range in {
		dither := (rng.Float32() + rng.Float32() - 1.0) * 0.5 // tri-PDF on [-0.5,0.5]
		scaled := float64(v)*scale + float64(dither)
		rounded := math.Round(scaled)
		switch {
		case rounded > math.MaxInt16:
			rounded = math.MaxInt16
		case rounded < math.MinInt16:
			rounded = math.MinInt16
		}
		out[i] = int16(rounded)
	}
}
