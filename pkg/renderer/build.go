// Package renderer wires a decoded interpreter.Score into a
// graph.Graph and renders it to a WAV stream: the graph-building half
// of spec.md §4.12, complementing pkg/interpreter's JSON decoding half.
package renderer

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/jsongraph/scorewav/pkg/dsp/gain"
	"github.com/jsongraph/scorewav/pkg/dsp/pan"
	"github.com/jsongraph/scorewav/pkg/fx"
	"github.com/jsongraph/scorewav/pkg/graph"
	"github.com/jsongraph/scorewav/pkg/interpreter"
)

// Logger traces graph-building decisions; distinct from
// interpreter.Logger only so the renderer package doesn't have to
// import a concrete logging type.
type Logger interface {
	Tracef(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Tracef(string, ...any) {}

// built is the result of constructing a score's graph: the root node to
// pull from, plus everything the render loop needs.
type built struct {
	g            *graph.Graph
	root         graph.NodeID
	sampleRate   float64
	lengthSec    float64
}

// Build constructs the processing graph for score at the given sample
// rate (spec.md §6: 44100 Hz, stereo root).
func Build(score *interpreter.Score, sampleRate float64, rng *rand.Rand, log Logger) (*built, error) {
	if log == nil {
		log = nopLogger{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	length, err := songLengthSeconds(score)
	if err != nil {
		return nil, err
	}

	g := graph.NewGraph()
	master := graph.NewJoinNode(g, graph.Sum, 2)
	masterID := g.Add(master)

	busses := map[string]*graph.JoinNode{}
	busIDs := map[string]graph.NodeID{}
	for _, bus := range score.Mixer.Busses {
		j := graph.NewJoinNode(g, graph.Sum, 2)
		id := g.Add(j)
		busses[bus.Name] = j
		busIDs[bus.Name] = id
	}

	route := func(outputs []interpreter.Output, fallback graph.NodeID, source graph.NodeID, channels int) error {
		if len(outputs) == 0 {
			master.AddInput(source, masterID)
			return nil
		}
		if len(outputs) > 1 {
			// More than one downstream consumer reads the same node:
			// wrap it in a FanOutQueue so each consumer's GetSamples
			// call gets its own read cursor instead of racing the
			// source node's single internal one (spec.md §5's
			// FanOutQueue, multi-consumer fan-out).
			if n := g.Resolve(source); n != nil {
				source = g.Add(graph.NewFanOutQueue(n, 4096))
			}
		}
		for _, out := range outputs {
			target := fallback
			targetName := "master"
			if len(out.Path) > 0 && !out.Path[0].IsIdx {
				targetName = out.Path[0].Name
			}
			var targetJoin *graph.JoinNode
			if targetName == "master" || targetName == "" {
				targetJoin, target = master, masterID
			} else if j, ok := busses[targetName]; ok {
				targetJoin, target = j, busIDs[targetName]
			} else {
				return &interpreter.InvalidScoreError{Rule: fmt.Sprintf("output references unknown bus %q", targetName)}
			}

			feed := source
			if out.Volume != nil {
				faderID := g.Add(fx.NewFaderFX(g, source, channels, gain.LinearToDb(*out.Volume)))
				feed = faderID
			}
			targetJoin.AddInput(feed, target)
		}
		return nil
	}

	for name, part := range score.Parts {
		log.Tracef("building part %q", name)
		if err := buildPart(g, score, name, part, sampleRate, rng, route); err != nil {
			return nil, err
		}
	}

	for _, bus := range score.Mixer.Busses {
		busID := busIDs[bus.Name]
		node, channels, err := applyFX(g, busID, 2, bus.FX, sampleRate, rng)
		if err != nil {
			return nil, err
		}
		if bus.Volume != nil {
			node = g.Add(fx.NewFaderFX(g, node, channels, gain.LinearToDb(*bus.Volume)))
		}
		if err := route(bus.Outputs, masterID, node, channels); err != nil {
			return nil, err
		}
	}

	root, rootChannels, err := applyFX(g, masterID, 2, score.Mixer.FX, sampleRate, rng)
	if err != nil {
		return nil, err
	}
	if score.Mixer.Volume != nil {
		root = g.Add(fx.NewFaderFX(g, root, rootChannels, gain.LinearToDb(*score.Mixer.Volume)))
	}
	g.SetRoot(root)

	if err := g.CheckAcyclic(root); err != nil {
		return nil, err
	}

	return &built{g: g, root: root, sampleRate: sampleRate, lengthSec: length}, nil
}

// buildPart instantiates a part's instrument voice(s), schedules its
// notes, runs its own fx chain, and routes the result onward.
func buildPart(
	g *graph.Graph, score *interpreter.Score, name string, part interpreter.Part,
	sampleRate float64, rng *rand.Rand,
	route func(outputs []interpreter.Output, fallback graph.NodeID, source graph.NodeID, channels int) error,
) error {
	duplication := 1
	if part.Duplication != nil && *part.Duplication > 1 {
		duplication = int(*part.Duplication)
	}

	events, err := computeNoteEvents(part.Notes, *score.Meta.Key, *score.Meta.Tempo)
	if err != nil {
		return fmt.Errorf("part %q: %w", name, err)
	}

	var voiceIDs []graph.NodeID
	for d := 0; d < duplication; d++ {
		detuneCents := 0.0
		if duplication > 1 {
			detuneCents = (float64(d) - float64(duplication-1)/2) * 6
		}
		node, err := newInstrument(g, part.Instrument, rng)
		if err != nil {
			return fmt.Errorf("part %q: %w", name, err)
		}
		id := g.Add(node)
		if sc, ok := node.(interface{ SetSelf(graph.NodeID) }); ok {
			sc.SetSelf(id)
		}
		detuned := make([]noteEvent, len(events))
		for i, ev := range events {
			ratio := 1.0
			if detuneCents != 0 {
				ratio = centsToRatio(detuneCents)
			}
			detuned[i] = noteEvent{startSec: ev.startSec, durSec: ev.durSec, freqHz: ev.freqHz * ratio, amp: ev.amp}
		}
		scheduleNotes(node, detuned, sampleRate)
		voiceIDs = append(voiceIDs, id)
	}

	channels := 1
	var source graph.NodeID
	if len(voiceIDs) == 1 {
		source = voiceIDs[0]
	} else {
		sumJoin := graph.NewJoinNode(g, graph.Sum, 1)
		sumID := g.Add(sumJoin)
		for _, id := range voiceIDs {
			sumJoin.AddInput(id, sumID)
		}
		source = sumID
	}

	node, ch, err := applyFX(g, source, channels, part.FX, sampleRate, rng)
	if err != nil {
		return fmt.Errorf("part %q: %w", name, err)
	}
	source, channels = node, ch

	if part.Volume != nil {
		source = g.Add(fx.NewFaderFX(g, source, channels, gain.LinearToDb(*part.Volume)))
	}

	if channels == 1 {
		source = g.Add(fx.NewPannerFX(g, source, 0, pan.ConstantPower))
		channels = 2
	}

	return route(part.Outputs, graph.Invalid, source, channels)
}

func centsToRatio(cents float64) float64 {
	return math.Pow(2, cents/1200.0)
}
