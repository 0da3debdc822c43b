// Package trace provides a tracing subsystem for the shadec checker.
//
// # Usage
//
// Enable tracing via command-line flags:
//
//	shadec check --trace=- --trace-level=detail shader.toml
//	shadec check --trace=trace.log --trace-format=log shader.yaml
//
// # Architecture
//
//   - Nop: zero-overhead no-op tracer when disabled
//   - StreamTracer: immediate text or NDJSON output
//   - LogTracer: structured records through zerolog
//   - MultiTracer: combines multiple tracers
//
// # Levels
//
//   - LevelOff: no tracing
//   - LevelError: reserved for failures
//   - LevelPhase: driver and pass boundaries
//   - LevelDetail: module-level events
//   - LevelDebug: everything including scope enter/leave
//
// # Context Propagation
//
//	ctx = trace.WithTracer(ctx, tracer)
//	t := trace.FromContext(ctx)
//
//	span := trace.Begin(t, trace.ScopePass, "resolve", parentID)
//	defer span.End("")
package trace
