// Package wav writes a streaming RIFF/WAVE PCM file: a 44-byte header
// (fmt + data chunks) is written up front with placeholder sizes, PCM
// frames are appended as they are produced, and the sizes are
// backpatched on Close. Grounded on the fixed-layout byte-for-byte
// header construction in the retrieval pack's entooone-simple-midi-synth
// wav writer, adapted from a build-the-whole-buffer-in-memory design to
// a streaming one since a render can produce minutes of audio.
package wav

import (
	"encoding/binary"
	"io"
	"math/rand"
)

// ChunkFrames is the sample-buffer chunk size frame counts are rounded
// up to, per spec.md §6 ("nearest sample-buffer chunk (16384 bytes)").
const ChunkFrames = 16384 / 2 // 16384 bytes / 2 bytes-per-sample (mono frame unit)

const sampleRate = 44100

// Writer streams PCM frames to an underlying io.WriteSeeker, backpatching
// the RIFF/fmt/data chunk sizes on Close.
type Writer struct {
	w          io.WriteSeeker
	channels   int
	bitsPer    int
	dataBytes  uint32
	ditherRand *rand.Rand
}

// New writes the 44-byte PCM header (channels, 44100 Hz, bitsPerSample)
// and returns a Writer ready for WriteFrames.
func New(w io.WriteSeeker, channels int, bitsPerSample int) (*Writer, error) {
	blockAlign := channels * bitsPerSample / 8
	byteRate := sampleRate * blockAlign

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 0) // chunk size, backpatched
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], sampleRate)
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitsPerSample))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], 0) // data size, backpatched

	if _, err := w.Write(header); err != nil {
		return nil, err
	}

	return &Writer{
		w:          w,
		channels:   channels,
		bitsPer:    bitsPerSample,
		ditherRand: rand.New(rand.NewSource(1)),
	}, nil
}

// WriteFrames dithers and quantizes interleaved float32 samples (range
// roughly [-1,1]) to the writer's bit depth and appends them.
func (wr *Writer) WriteFrames(interleaved []float32) error {
	switch wr.bitsPer {
	case 16:
		return wr.write16(interleaved)
	default:
		return wr.write16(interleaved)
	}
}

func (wr *Writer) write16(interleaved []float32) error {
	buf := make([]byte, len(interleaved)*2)
	const fullScale = 32767.0
	for i, s := range interleaved {
		dither := (wr.ditherRand.Float32() + wr.ditherRand.Float32() - 1) / fullScale
		v := s + dither
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		q := int16(v * fullScale)
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], uint16(q))
	}
	if _, err := wr.w.Write(buf); err != nil {
		return err
	}
	wr.dataBytes += uint32(len(buf))
	return nil
}

// Close backpatches the RIFF and data chunk sizes and, if w implements
// io.Closer, closes the underlying writer.
func (wr *Writer) Close() error {
	if _, err := wr.w.Seek(4, io.SeekStart); err != nil {
		return err
	}
	var sz [4]byte
	binary.LittleEndian.PutUint32(sz[:], wr.dataBytes+36)
	if _, err := wr.w.Write(sz[:]); err != nil {
		return err
	}
	if _, err := wr.w.Seek(40, io.SeekStart); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(sz[:], wr.dataBytes)
	if _, err := wr.w.Write(sz[:]); err != nil {
		return err
	}
	if c, ok := wr.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// TotalFrames computes the frame count for a song of the given length
// in seconds: ceil(song_length*sr) + sr, rounded up to the nearest
// ChunkFrames (spec.md §6).
func TotalFrames(songLengthSeconds float64) int {
	exact := songLengthSeconds * sampleRate
	frames := int(exact)
	if float64(frames) < exact {
		frames++
	}
	frames += sampleRate
	if rem := frames % ChunkFrames; rem != 0 {
		frames += ChunkFrames - rem
	}
	return frames
}
