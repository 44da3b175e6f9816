package interpreter

import (
	"encoding/json"
	"fmt"
)

// Meta carries the mandatory tempo/key and optional name (spec.md §6).
// Tempo and Key are pointers so presence can be distinguished from a
// legitimate zero value when checking the "mandatory under meta" rule.
type Meta struct {
	Name  *string  `json:"name"`
	Tempo *float64 `json:"tempo"`
	Key   *float64 `json:"key"`
}

// PathSegment is one hop of an Output's routing path: either a bus name
// or a numeric channel index (spec.md §6: "path": [string|number]).
type PathSegment struct {
	Name  string
	Index int
	IsIdx bool
}

func (p *PathSegment) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		p.Name = s
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		p.Index = n
		p.IsIdx = true
		return nil
	}
	return fmt.Errorf("path segment must be a string or number")
}

// Output routes a part's or bus's signal onward (spec.md §6).
type Output struct {
	Path   []PathSegment `json:"path"`
	Volume *float64      `json:"volume"`
}

// FXSpec is one effect entry: a single-key object whose key names the
// effect type and whose value is its parameter object (spec.md §6's fx
// list). Parameters are decoded generically as float64 — every fx
// parameter in spec.md §4 is numeric (frequencies, ratios, gains,
// times) or a 0/1-valued boolean flag, so a flat float64 map covers the
// whole fx grammar without one struct type per effect.
type FXSpec struct {
	Type   string
	Params map[string]float64
}

func (f *FXSpec) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		f.Type = k
		f.Params = map[string]float64{}
		var asMap map[string]json.RawMessage
		if err := json.Unmarshal(v, &asMap); err == nil {
			for pk, pv := range asMap {
				var num float64
				if err := json.Unmarshal(pv, &num); err == nil {
					f.Params[pk] = num
					continue
				}
				var b bool
				if err := json.Unmarshal(pv, &b); err == nil {
					if b {
						f.Params[pk] = 1
					} else {
						f.Params[pk] = 0
					}
				}
			}
		}
		break // single-key object per the grammar
	}
	return nil
}

// Param reads a parameter with a fallback default.
func (f FXSpec) Param(name string, def float64) float64 {
	if v, ok := f.Params[name]; ok {
		return v
	}
	return def
}

// Bool reads a 0/1-valued parameter as a boolean.
func (f FXSpec) Bool(name string, def bool) bool {
	if v, ok := f.Params[name]; ok {
		return v != 0
	}
	return def
}

// Bus is one mixer bus (spec.md §6's recursive "Bus ↻ Busses ↻").
type Bus struct {
	Name    string   `json:"name"`
	Volume  *float64 `json:"volume"`
	FX      []FXSpec `json:"fx"`
	Outputs []Output `json:"outputs"`
}

// Mixer is the top-level routing/fx section (spec.md §6).
type Mixer struct {
	Volume  *float64 `json:"volume"`
	FX      []FXSpec `json:"fx"`
	Busses  []Bus    `json:"busses"`
}

// Instrument names a synth type and its construction parameters
// (spec.md §6: "instrument": instrument | string).
type Instrument struct {
	Type   string
	Params map[string]float64
}

func (i *Instrument) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		i.Type = s
		i.Params = map[string]float64{}
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	i.Params = map[string]float64{}
	for k, v := range m {
		if k == "type" {
			json.Unmarshal(v, &i.Type)
			continue
		}
		var f float64
		if json.Unmarshal(v, &f) == nil {
			i.Params[k] = f
		}
	}
	return nil
}

// Param reads an instrument construction parameter with a fallback.
func (i Instrument) Param(name string, def float64) float64 {
	if v, ok := i.Params[name]; ok {
		return v
	}
	return def
}

// NoteEntry is one `[pitch, beat|(beat_rel, art), amp?]` tuple
// (spec.md §6). The second element is either a bare beat number
// (absolute timing) or a (beat_rel, articulation) pair (relative and
// intuitive timing).
type NoteEntry struct {
	Pitch  float64
	Time   float64
	Art    float64
	Amp    float64
	HasAmp bool
}

func (n *NoteEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 2 {
		return fmt.Errorf("note entry needs at least [pitch, time]")
	}
	if err := json.Unmarshal(raw[0], &n.Pitch); err != nil {
		return err
	}
	n.Art = 1
	var asNum float64
	if err := json.Unmarshal(raw[1], &asNum); err == nil {
		n.Time = asNum
	} else {
		var pair [2]float64
		if err := json.Unmarshal(raw[1], &pair); err != nil {
			return fmt.Errorf("note time must be a number or [beat_rel, art] pair: %w", err)
		}
		n.Time, n.Art = pair[0], pair[1]
	}
	if len(raw) >= 3 {
		if err := json.Unmarshal(raw[2], &n.Amp); err == nil {
			n.HasAmp = true
		}
	}
	return nil
}

// TimingMode selects how successive NoteEntry.Time fields combine into
// absolute beat positions (spec.md §6).
type TimingMode int

const (
	Absolute TimingMode = iota
	Relative
	Intuitive
)

// ParseTiming resolves a notes.timing string to a TimingMode.
func ParseTiming(s string) (TimingMode, error) {
	switch s {
	case "", "absolute":
		return Absolute, nil
	case "relative":
		return Relative, nil
	case "intuitive":
		return Intuitive, nil
	default:
		return Absolute, fmt.Errorf("unrecognised timing mode %q", s)
	}
}

// Tuning selects how NoteEntry.Pitch maps to a frequency (spec.md §6).
type Tuning int

const (
	EDO Tuning = iota
	Just
	Freq
)

// Notes is a part's note list and tuning/timing configuration
// (spec.md §6).
type Notes struct {
	Tuning      string      `json:"tuning"`
	Timing      string      `json:"timing"`
	MinDuration *float64    `json:"minduration"`
	DB          bool        `json:"db"`
	Dur         *float64    `json:"dur"`
	Transpose   *float64    `json:"transpose"`
	Values      []NoteEntry `json:"values"`
}

// Part is one instrument track (spec.md §6).
type Part struct {
	Duplication *float64   `json:"duplication"`
	Instrument  Instrument `json:"instrument"`
	Volume      *float64   `json:"volume"`
	Outputs     []Output   `json:"outputs"`
	FX          []FXSpec   `json:"fx"`
	Notes       Notes      `json:"notes"`
}

// Score is a fully-decoded, ordering-validated song (spec.md §6).
type Score struct {
	Meta  Meta
	Mixer Mixer
	Parts map[string]Part
}
