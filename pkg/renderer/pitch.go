package renderer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// justRatios is a 5-limit just-intonation scale over one octave, indexed
// by scale degree 0-11 (degree 0 is unison, 1/1 — spec.md §9's worked
// example "pitch=0 (just intonation 1/1)").
var justRatios = [12]float64{
	1.0 / 1, 16.0 / 15, 9.0 / 8, 6.0 / 5, 5.0 / 4, 4.0 / 3,
	45.0 / 32, 3.0 / 2, 8.0 / 5, 5.0 / 3, 9.0 / 5, 15.0 / 8,
}

// frequencyForPitch converts a note's pitch value to Hz under the given
// tuning (spec.md §6's "edoNN"|"just"|"freq"). transpose is added to
// pitch before conversion, except under "freq" tuning where pitch is
// already an absolute frequency and transpose shifts it directly in Hz.
func frequencyForPitch(tuning string, key, pitch, transpose float64) (float64, error) {
	switch {
	case tuning == "just":
		pitch += transpose
		degree := int(math.Floor(pitch + 0.5))
		octave := math.Floor(float64(degree) / 12.0)
		idx := degree - int(octave)*12
		return key * justRatios[idx] * math.Pow(2, octave), nil

	case tuning == "freq":
		return pitch + transpose, nil

	case strings.HasPrefix(tuning, "edo"):
		divisions, err := strconv.Atoi(strings.TrimPrefix(tuning, "edo"))
		if err != nil || divisions <= 0 {
			return 0, fmt.Errorf("invalid edo tuning %q", tuning)
		}
		pitch += transpose
		return key * math.Pow(2, pitch/float64(divisions)), nil

	default:
		return 0, fmt.Errorf("unrecognised tuning %q", tuning)
	}
}
