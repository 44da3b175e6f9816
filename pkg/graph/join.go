package graph

import (
	"math"
	"sync"

	"github.com/jsongraph/scorewav/pkg/dsp/oversample"
)

// JoinKind selects how a JoinNode combines its inputs.
type JoinKind int

const (
	// Sum adds all inputs, pairwise tree reduction in input-index order.
	Sum JoinKind = iota
	// RingMod multiplies inputs pairwise through a ×2 oversample/downsample
	// pass to band-limit the product (§4.4).
	RingMod
	// RingModSum blends a Sum path and a RingMod path by Balance.
	RingModSum
)

// Input is a single upstream wire into a JoinNode.
type Input struct {
	Node NodeID
}

// JoinNode pulls every input's GetSamples, delay-aligns peers whose
// SampleDelay differs from the maximum, and combines them according to
// Kind. See spec.md §4.4.
type JoinNode struct {
	BaseNode

	g       *Graph
	kind    JoinKind
	balance float64 // RingModSum mix: rm_amp = 0.5-0.5*balance, sum_amp = 0.5+0.5*balance

	inputs   []Input
	channels int

	maxInputDelay int
	delayLines    [][][]float32 // [inputIdx][channel] ring of pending delayed samples
	delayWrite    []int

	ringChain      *oversample.Chain
	ringLevels     int
	compDelayLine  [][]float32 // per channel, compensates sum path against ring-mod latency (RingModSum)
	compDelayWrite int
}

// NewJoinNode creates a join over channels output channels.
func NewJoinNode(g *Graph, kind JoinKind, channels int) *JoinNode {
	j := &JoinNode{
		g:         g,
		kind:      kind,
		channels:  channels,
		ringChain: oversample.New(2),
	}
	return j
}

// SetBalance sets the RingModSum mix balance in [-1, 1].
func (j *JoinNode) SetBalance(b float64) {
	if b < -1 {
		b = -1
	} else if b > 1 {
		b = 1
	}
	j.balance = b
}

// AddInput wires a new upstream node in, firing its OnAddedAsInput hook
// and recomputing delay-line sizing.
func (j *JoinNode) AddInput(id NodeID, selfID NodeID) {
	j.inputs = append(j.inputs, Input{Node: id})
	if n := j.g.Resolve(id); n != nil {
		n.OnAddedAsInput(selfID)
	}
	j.recomputeDelays()
}

// RemoveInput unwires an input node.
func (j *JoinNode) RemoveInput(id NodeID, selfID NodeID) {
	for i, in := range j.inputs {
		if in.Node == id {
			j.inputs = append(j.inputs[:i], j.inputs[i+1:]...)
			break
		}
	}
	if n := j.g.Resolve(id); n != nil {
		n.OnRemovedFromInput(selfID)
	}
	j.recomputeDelays()
}

// Inputs implements graph.Inputs for cycle detection.
func (j *JoinNode) Inputs() []NodeID {
	ids := make([]NodeID, len(j.inputs))
	for i, in := range j.inputs {
		ids[i] = in.Node
	}
	return ids
}

func (j *JoinNode) recomputeDelays() {
	j.maxInputDelay = 0
	for _, in := range j.inputs {
		if n := j.g.Resolve(in.Node); n != nil {
			if d := n.SampleDelay(); d > j.maxInputDelay {
				j.maxInputDelay = d
			}
		}
	}

	j.delayLines = make([][][]float32, len(j.inputs))
	j.delayWrite = make([]int, len(j.inputs))
	for i, in := range j.inputs {
		d := 0
		if n := j.g.Resolve(in.Node); n != nil {
			d = j.maxInputDelay - n.SampleDelay()
		}
		lines := make([][]float32, j.channels)
		for ch := range lines {
			lines[ch] = make([]float32, d)
		}
		j.delayLines[i] = lines
	}

	if j.kind == RingMod || j.kind == RingModSum {
		j.ringLevels = int(math.Ceil(math.Log2(float64(len(j.inputs)))))
		if j.ringLevels < 0 {
			j.ringLevels = 0
		}
	}
}

// NumChannels implements AudioNode.
func (j *JoinNode) NumChannels() int { return j.channels }

// SampleDelay implements AudioNode: the maximum peer delay, plus any
// additional latency the ring-mod reduction tree introduces.
func (j *JoinNode) SampleDelay() int {
	d := j.maxInputDelay
	if j.kind == RingMod || j.kind == RingModSum {
		d += j.ringLevels * j.ringChain.SampleDelay()
	}
	return d
}

// GetSamples implements AudioNode.
func (j *JoinNode) GetSamples(bufs [][]float32, nframes int, sr float64, requester NodeID) bool {
	n := len(j.inputs)
	if n == 0 {
		return false
	}

	perInput := make([][][]float32, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i, in := range j.inputs {
		i, in := i, in
		go func() {
			defer wg.Done()
			buf := make([][]float32, j.channels)
			for ch := range buf {
				buf[ch] = make([]float32, nframes)
			}
			node := j.g.Resolve(in.Node)
			if node == nil || !node.GetSamples(buf, nframes, sr, requester) {
				// Upstream failure: treat as silence, buffers already zero.
			}
			perInput[i] = buf
		}()
	}
	wg.Wait()

	// Delay-align every input against the slowest peer.
	for i := range perInput {
		for ch := 0; ch < j.channels; ch++ {
			perInput[i][ch] = j.delayAlign(i, ch, perInput[i][ch])
		}
	}

	switch j.kind {
	case Sum:
		j.combineSum(perInput, bufs, nframes)
	case RingMod:
		j.combineRingMod(perInput, bufs, nframes)
	case RingModSum:
		j.combineRingModSum(perInput, bufs, nframes)
	}

	return true
}

// delayAlign prepends this input's delay-line contents to its freshly
// produced samples and stores the new tail back into the delay line, per
// spec.md §4.4 step 3.
func (j *JoinNode) delayAlign(inputIdx, ch int, fresh []float32) []float32 {
	line := j.delayLines[inputIdx][ch]
	if len(line) == 0 {
		return fresh
	}

	out := make([]float32, len(fresh))
	combined := append(append([]float32{}, line...), fresh...)
	copy(out, combined[:len(fresh)])

	newLine := combined[len(fresh):]
	if len(newLine) != len(line) {
		newLine = newLine[len(newLine)-len(line):]
	}
	copy(j.delayLines[inputIdx][ch], newLine)

	return out
}

// combineSum performs a deterministic pairwise tree reduction (stride
// doubling, fixed by input index) so the result is independent of task
// scheduling order.
func (j *JoinNode) combineSum(perInput [][][]float32, out [][]float32, nframes int) {
	for ch := 0; ch < j.channels; ch++ {
		level := make([][]float32, len(perInput))
		for i := range perInput {
			level[i] = perInput[i][ch]
		}
		for len(level) > 1 {
			next := make([][]float32, 0, (len(level)+1)/2)
			for i := 0; i < len(level); i += 2 {
				if i+1 < len(level) {
					next = append(next, addBuf(level[i], level[i+1]))
				} else {
					next = append(next, level[i])
				}
			}
			level = next
		}
		copy(out[ch], level[0])
	}
}

func addBuf(a, b []float32) []float32 {
	out := make([]float32, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// combineRingMod reduces all inputs via pairwise oversampled
// multiplication, halting at ceil(log2(N)) levels (§4.4).
func (j *JoinNode) combineRingMod(perInput [][][]float32, out [][]float32, nframes int) {
	for ch := 0; ch < j.channels; ch++ {
		level := make([][]float32, len(perInput))
		for i := range perInput {
			level[i] = perInput[i][ch]
		}
		for len(level) > 1 {
			next := make([][]float32, 0, (len(level)+1)/2)
			for i := 0; i < len(level); i += 2 {
				if i+1 < len(level) {
					next = append(next, j.ringMultiply(level[i], level[i+1]))
				} else {
					next = append(next, level[i])
				}
			}
			level = next
		}
		copy(out[ch], level[0])
	}
}

// ringMultiply upsamples both operands ×2, multiplies sample-by-sample,
// and downsamples ×2 to suppress the sum/difference aliasing a naive
// multiply would introduce.
func (j *JoinNode) ringMultiply(a, b []float32) []float32 {
	ua := j.ringChain.Upsample(a)
	ub := j.ringChain.Upsample(b)
	prod := make([]float32, len(ua))
	for i := range ua {
		prod[i] = ua[i] * ub[i]
	}
	return j.ringChain.Downsample(prod)
}

// combineRingModSum mixes a sum path (delayed to match the ring-mod
// chain's added latency) with the ring-mod path per spec.md §4.4.
func (j *JoinNode) combineRingModSum(perInput [][][]float32, out [][]float32, nframes int) {
	sumOut := make([][]float32, j.channels)
	ringOut := make([][]float32, j.channels)
	for ch := range sumOut {
		sumOut[ch] = make([]float32, nframes)
		ringOut[ch] = make([]float32, nframes)
	}
	j.combineSum(perInput, sumOut, nframes)
	j.combineRingMod(perInput, ringOut, nframes)

	rmAmp := float32(0.5 - 0.5*j.balance)
	sumAmp := float32(0.5 + 0.5*j.balance)

	addedLatency := j.ringLevels * j.ringChain.SampleDelay()
	if j.compDelayLine == nil {
		j.compDelayLine = make([][]float32, j.channels)
		for ch := range j.compDelayLine {
			j.compDelayLine[ch] = make([]float32, addedLatency)
		}
	}

	for ch := 0; ch < j.channels; ch++ {
		line := j.compDelayLine[ch]
		combined := append(append([]float32{}, line...), sumOut[ch]...)
		delayed := combined[:nframes]
		newLine := combined[nframes:]
		if len(newLine) != len(line) {
			newLine = newLine[len(newLine)-len(line):]
		}
		copy(j.compDelayLine[ch], newLine)

		for i := 0; i < nframes; i++ {
			out[ch][i] = delayed[i]*sumAmp + ringOut[ch][i]*rmAmp
		}
	}
}
