package trace

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// Tracer is the main interface for emitting trace events.
type Tracer interface {
	// Emit records a trace event. Must be goroutine-safe.
	Emit(ev *Event)

	// Flush ensures all buffered events are written.
	Flush() error

	// Close flushes and releases resources.
	Close() error

	// Level returns the current tracing level.
	Level() Level

	// Enabled returns true if tracing is active (Level > LevelOff).
	Enabled() bool
}

// Config holds tracer configuration.
type Config struct {
	Level      Level     // tracing level
	Format     Format    // output format, used when Formats is empty
	Formats    []Format  // several formats fan out through a MultiTracer
	Output     io.Writer // if nil, use OutputPath
	OutputPath string    // file path ("-" or "" for stderr)
}

// New creates a Tracer based on Config. With more than one format every
// format gets its own sink; a file output is then split into
// OutputPath.<format> files.
func New(cfg Config) (Tracer, error) {
	if cfg.Level == LevelOff {
		return Nop, nil
	}
	formats := cfg.Formats
	if len(formats) == 0 {
		formats = []Format{cfg.Format}
	}
	if len(formats) == 1 {
		return newSink(cfg, formats[0])
	}
	sinks := make([]Tracer, 0, len(formats))
	for _, f := range formats {
		sub := cfg
		if sub.Output == nil && sub.OutputPath != "" && sub.OutputPath != "-" {
			sub.OutputPath += "." + f.String()
		}
		tr, err := newSink(sub, f)
		if err != nil {
			for _, s := range sinks {
				_ = s.Close() //nolint:errcheck
			}
			return nil, err
		}
		sinks = append(sinks, tr)
	}
	return NewMultiTracer(cfg.Level, sinks...), nil
}

func newSink(cfg Config, format Format) (Tracer, error) {
	w, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	if format == FormatLog {
		lt := NewLogTracer(zerolog.New(w).With().Timestamp().Logger(), cfg.Level)
		if f, ok := w.(*os.File); ok && f != os.Stderr && f != os.Stdout {
			lt.closer = f
		}
		return lt, nil
	}
	return NewStreamTracer(w, cfg.Level, format), nil
}

// openOutput opens the output writer from config.
func openOutput(cfg Config) (io.Writer, error) {
	if cfg.Output != nil {
		return cfg.Output, nil
	}
	if cfg.OutputPath == "" || cfg.OutputPath == "-" {
		return os.Stderr, nil
	}
	f, err := os.Create(cfg.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace output: %w", err)
	}
	return f, nil
}

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "":
		return FormatText, nil
	case "ndjson":
		return FormatNDJSON, nil
	case "log", "json":
		return FormatLog, nil
	default:
		return FormatText, fmt.Errorf("invalid trace format: %q (expected: text|ndjson|log)", s)
	}
}

// ParseFormats parses a comma separated list of formats, e.g. "text,log".
// Repeated formats are kept once.
func ParseFormats(s string) ([]Format, error) {
	var out []Format
	for part := range strings.SplitSeq(s, ",") {
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out, nil
}
