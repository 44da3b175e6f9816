package renderer

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/jsongraph/scorewav/pkg/graph"
	"github.com/jsongraph/scorewav/pkg/interpreter"
	"github.com/jsongraph/scorewav/pkg/synth"
)

// newInstrument instantiates the voice a part's instrument names
// (spec.md §6's instrument grammar, §4.6's synth family). Notes drive
// frequency/amplitude after construction, so the instrument's own
// "frequency"/"amplitude" parameters only matter as the pre-first-note
// starting point (harmless for every Value of tuning the notes block
// actually uses, since the first scheduled event overrides it before
// any audio is pulled).
func newInstrument(g *graph.Graph, inst interpreter.Instrument, rng *rand.Rand) (graph.AudioNode, error) {
	freq := inst.Param("frequency", 440)
	amp := inst.Param("amplitude", 0)

	switch inst.Type {
	case "sine":
		return synth.NewSineSynth(g, freq, amp), nil
	case "cosine":
		return synth.NewCosineSynth(g, freq, amp), nil

	case "pwmage":
		config := synth.PWMageConfig(int(inst.Param("config", 0)))
		if config < synth.PWMageMono || config > synth.PWMageTriple {
			config = synth.PWMageMono
		}
		return synth.NewPWMage(g, freq, amp, config), nil

	case "additive":
		partials := int(inst.Param("partials", 6))
		if partials < 1 {
			partials = 1
		}
		rolloff := inst.Param("rolloff", 1.0)
		modes := make([]synth.AdditiveMode, partials)
		for i := range modes {
			modes[i] = synth.AdditiveMode{
				FreqRatio: float64(i + 1),
				Amplitude: 1.0 / math.Pow(float64(i+1), rolloff),
			}
		}
		return synth.NewAdditiveHitSynth(g, freq, modes), nil

	case "drumhit":
		return synth.NewDrumHitSynth(g, freq, rng), nil

	default:
		return nil, &interpreter.InvalidScoreError{Rule: fmt.Sprintf("unrecognised instrument type %q", inst.Type)}
	}
}
