// Command renderer turns a JSON score into a WAV file (spec.md §6).
//
// Usage: renderer [-l|--log] <score.json>+
//
// Each positional argument is rendered in turn, writing <basename>.wav
// next to the input. -l/--log enables tracing of interpreter section
// transitions and graph-building decisions.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/pflag"

	"github.com/jsongraph/scorewav/pkg/interpreter"
	"github.com/jsongraph/scorewav/pkg/renderer"
	"github.com/jsongraph/scorewav/pkg/wav"
)

// Exit codes per spec.md §6. -1 and -2 are the values the original
// interpreter returns; a Unix process can't literally exit with a
// negative status (the kernel truncates to the low 8 bits), so they're
// carried through as the bytes the shell would actually observe: 255
// and 254.
const (
	exitOK            = 0
	exitMissingArg    = 255
	exitParseFailure  = 254
	exitRenderFailure = 1
)

// traceLogger adapts *charmlog.Logger to interpreter.Logger and
// renderer.Logger's shared Tracef shape, since charmbracelet/log has no
// "trace" level of its own — interpreter/graph tracing is finer-grained
// than anything this CLI otherwise logs, so it rides on Debug.
type traceLogger struct{ l *charmlog.Logger }

func (t traceLogger) Tracef(format string, args ...any) { t.l.Debugf(format, args...) }

func main() {
	var verbose bool
	pflag.BoolVarP(&verbose, "log", "l", false, "trace interpreter mode transitions")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [-l|--log] <score.json>+\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()

	logger := charmlog.New(os.Stderr)
	if verbose {
		logger.SetLevel(charmlog.DebugLevel)
	} else {
		logger.SetLevel(charmlog.WarnLevel)
	}
	trace := traceLogger{l: logger}

	if pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(exitMissingArg)
	}

	var firstErr error
	for _, path := range pflag.Args() {
		if err := renderOne(path, trace, logger); err != nil {
			logger.Error("render failed", "file", path, "err", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if firstErr != nil {
		if _, ok := firstErr.(*interpreter.ParseError); ok {
			os.Exit(exitParseFailure)
		}
		os.Exit(exitRenderFailure)
	}
	os.Exit(exitOK)
}

func renderOne(path string, trace traceLogger, logger *charmlog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	logger.Debug("parsing score", "file", path)
	score, err := interpreter.Load(f, trace)
	if err != nil {
		return err
	}

	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".wav"
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}

	writer, err := wav.New(out, 2, 16)
	if err != nil {
		out.Close()
		return err
	}

	logger.Debug("rendering", "file", path, "out", outPath)
	if err := renderer.Render(score, writer, trace); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}
