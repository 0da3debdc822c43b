package trace

import (
	"io"

	"github.com/rs/zerolog"
)

// LogTracer forwards events to a zerolog logger as structured records.
// Driver and pass events are logged at info, module events at debug and
// node events at trace level.
type LogTracer struct {
	logger zerolog.Logger
	level  Level
	closer io.Closer
}

// NewLogTracer wraps logger. The tracer does not own the logger's writer.
func NewLogTracer(logger zerolog.Logger, level Level) *LogTracer {
	return &LogTracer{logger: logger, level: level}
}

// Emit writes ev as one log record.
func (t *LogTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) {
		return
	}
	var e *zerolog.Event
	switch ev.Scope {
	case ScopeDriver, ScopePass:
		e = t.logger.Info()
	case ScopeModule:
		e = t.logger.Debug()
	default:
		e = t.logger.Trace()
	}
	e = e.Str("kind", ev.Kind.String()).
		Str("scope", ev.Scope.String()).
		Uint64("seq", ev.Seq)
	if ev.SpanID != 0 {
		e = e.Uint64("span", ev.SpanID)
	}
	if ev.ParentID != 0 {
		e = e.Uint64("parent", ev.ParentID)
	}
	if ev.Detail != "" {
		e = e.Str("detail", ev.Detail)
	}
	for _, k := range sortedKeys(ev.Extra) {
		e = e.Str(k, ev.Extra[k])
	}
	e.Msg(ev.Name)
}

// Flush is a no-op: zerolog writes each record immediately.
func (t *LogTracer) Flush() error { return nil }

// Close releases the output opened by New, if any.
func (t *LogTracer) Close() error {
	if t.closer != nil {
		return t.closer.Close()
	}
	return nil
}

// Level returns the current tracing level.
func (t *LogTracer) Level() Level { return t.level }

// Enabled returns true if tracing is active.
func (t *LogTracer) Enabled() bool { return t.level > LevelOff }
