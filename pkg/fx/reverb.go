package fx

import (
	"math/rand"

	"github.com/jsongraph/scorewav/pkg/dsp/reverb"
	"github.com/jsongraph/scorewav/pkg/graph"
)

// ReverbAlgo selects which reverb engine a ReverbFX runs: the full
// diffuser+tank FDN is the spec's primary algorithm (spec.md §4.11);
// the rest are the teacher's alternates, kept wired as secondary
// choices selectable from the "reverb" fx's parameters ("simple" picks
// the plain FDN, "algo" 2 or 3 picks Freeverb or Schroeder) rather than
// left as unreachable dead code.
type ReverbAlgo int

const (
	ReverbDiffuse ReverbAlgo = iota
	ReverbSimpleFDN
	ReverbFreeverb
	ReverbSchroeder
)

// ReverbFX wraps one of four reverb engines behind the same AudioNode
// shape, so the "reverb" fx key can pick whichever algorithm a score
// asks for without the graph caring which.
type ReverbFX struct {
	unary
	full      *reverb.DiffuseReverb
	simple    *reverb.FDN
	freeverb  *reverb.Freeverb
	schroeder *reverb.Schroeder
}

func NewReverbFX(g *graph.Graph, child graph.NodeID, sr, rt60 float64, algo ReverbAlgo, rng *rand.Rand) *ReverbFX {
	r := &ReverbFX{unary: newUnary(g, child, 2)}
	switch algo {
	case ReverbSimpleFDN:
		r.simple = reverb.NewFDN(8, sr)
		r.simple.SetDecay(rt60 / 4)
	case ReverbFreeverb:
		r.freeverb = reverb.NewFreeverb(sr)
		r.freeverb.SetRoomSize(rt60 / (rt60 + 1))
	case ReverbSchroeder:
		r.schroeder = reverb.NewSchroeder(sr)
		r.schroeder.SetRoomSize(rt60 / (rt60 + 1))
	default:
		r.full = reverb.NewDiffuseReverb(rng, sr, rt60)
	}
	return r
}

func (r *ReverbFX) SampleDelay() int { return 0 }

func (r *ReverbFX) GetSamples(bufs [][]float32, nframes int, sr float64, requester graph.NodeID) bool {
	in := r.pull(nframes, sr, requester)
	right := in[0]
	if len(in) > 1 {
		right = in[1]
	}
	for i := 0; i < nframes; i++ {
		var l, rr float32
		switch {
		case r.full != nil:
			l, rr = r.full.ProcessStereo(in[0][i], right[i])
		case r.simple != nil:
			l, rr = r.simple.ProcessStereo(in[0][i], right[i])
		case r.freeverb != nil:
			l, rr = r.freeverb.ProcessStereo(in[0][i], right[i])
		default:
			l, rr = r.schroeder.ProcessStereo(in[0][i], right[i])
		}
		bufs[0][i] = l
		if len(bufs) > 1 {
			bufs[1][i] = rr
		}
	}
	return true
}
