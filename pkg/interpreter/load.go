package interpreter

import (
	"encoding/json"
	"fmt"
	"io"
)

// Logger traces section-by-section progress through a score file,
// mirroring the original interpreter's optional verbose mode (spec.md
// §6, CLI -l/--log flag). NopLogger discards everything.
type Logger interface {
	Tracef(format string, args ...any)
}

type NopLogger struct{}

func (NopLogger) Tracef(string, ...any) {}

// Load decodes and validates a score document (spec.md §4.12, §6).
//
// The top-level object's key order carries real semantics — "meta"
// must appear before "parts", and "mixer" must appear before "parts",
// so that a part referencing a bus or a transpose/tempo-relative value
// never observes an as-yet-unparsed section. Load therefore walks the
// top level token-by-token with json.Decoder.Token(), tracking which
// sections have been seen so far, and rejects the document the moment
// an ordering rule is violated.
//
// Nothing below the top level has an order-dependent meaning (the
// grammar for a single meta/mixer/part object does not let parsing one
// field early change the meaning of a field parsed later), so once
// Load has identified which top-level key it is looking at it decodes
// that key's value with the decoder's ordinary Decode — interleaving
// Token and Decode calls on one *json.Decoder is a standard, supported
// pattern. Hand-rolling a token-level FSM for every nested object would
// just reimplement encoding/json's struct tags without adding any
// enforceable invariant.
func Load(r io.Reader, log Logger) (*Score, error) {
	if log == nil {
		log = NopLogger{}
	}
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, &ParseError{Err: fmt.Errorf("score must be a JSON object")}
	}

	var score Score
	var sawMeta, sawMixer, sawParts bool

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, &ParseError{Err: fmt.Errorf("expected object key, got %v", keyTok)}
		}

		switch key {
		case "meta":
			log.Tracef("entering meta")
			if err := dec.Decode(&score.Meta); err != nil {
				return nil, &ParseError{Err: err}
			}
			sawMeta = true

		case "mixer":
			log.Tracef("entering mixer")
			if sawParts {
				return nil, &InvalidScoreError{Rule: "mixer must appear before parts"}
			}
			if err := dec.Decode(&score.Mixer); err != nil {
				return nil, &ParseError{Err: err}
			}
			sawMixer = true

		case "parts":
			log.Tracef("entering parts")
			if !sawMeta {
				return nil, &InvalidScoreError{Rule: "meta must appear before parts"}
			}
			if err := dec.Decode(&score.Parts); err != nil {
				return nil, &ParseError{Err: err}
			}
			sawParts = true

		default:
			log.Tracef("skipping unrecognised top-level key %q", key)
			var discard json.RawMessage
			if err := dec.Decode(&discard); err != nil {
				return nil, &ParseError{Err: err}
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, &ParseError{Err: err}
	}

	if !sawMeta {
		return nil, &InvalidScoreError{Rule: "missing meta section"}
	}
	if score.Meta.Tempo == nil {
		return nil, &InvalidScoreError{Rule: "meta.tempo is mandatory"}
	}
	if score.Meta.Key == nil {
		return nil, &InvalidScoreError{Rule: "meta.key is mandatory"}
	}
	if !sawParts {
		return nil, &InvalidScoreError{Rule: "missing parts section"}
	}
	_ = sawMixer

	for name, part := range score.Parts {
		if _, err := ParseTiming(part.Notes.Timing); err != nil {
			return nil, &InvalidScoreError{Rule: fmt.Sprintf("part %q: %v", name, err)}
		}
	}

	return &score, nil
}
