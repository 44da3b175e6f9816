package renderer

import (
	"math/rand"

	"github.com/jsongraph/scorewav/pkg/graph"
	"github.com/jsongraph/scorewav/pkg/interpreter"
	"github.com/jsongraph/scorewav/pkg/wav"
)

const sampleRate = 44100

// Render builds score's graph and pulls it to completion, writing
// interleaved PCM frames through w (spec.md §6's output contract).
func Render(score *interpreter.Score, w *wav.Writer, log Logger) error {
	b, err := Build(score, sampleRate, rand.New(rand.NewSource(1)), log)
	if err != nil {
		return err
	}

	totalFrames := wav.TotalFrames(b.lengthSec)
	bufs := [][]float32{make([]float32, wav.ChunkFrames), make([]float32, wav.ChunkFrames)}
	interleaved := make([]float32, wav.ChunkFrames*2)

	for produced := 0; produced < totalFrames; produced += wav.ChunkFrames {
		nframes := wav.ChunkFrames
		if remaining := totalFrames - produced; remaining < nframes {
			nframes = remaining
		}
		for ch := range bufs {
			bufs[ch] = bufs[ch][:nframes]
			for i := range bufs[ch] {
				bufs[ch][i] = 0
			}
		}
		root := b.g.Resolve(b.root)
		if root == nil {
			break
		}
		root.GetSamples(bufs, nframes, b.sampleRate, graph.Invalid)

		interleaved = interleaved[:nframes*2]
		for i := 0; i < nframes; i++ {
			interleaved[i*2] = bufs[0][i]
			interleaved[i*2+1] = bufs[1][i]
		}
		if err := w.WriteFrames(interleaved); err != nil {
			return err
		}
	}
	return nil
}
