// Package diag defines the diagnostic model shared by the resolver and the
// driver.
//
// Producers never format or print. They emit through a Reporter, usually via
// the ReportBuilder helpers:
//
//	diag.ReportError(r, diag.SemaDuplicateSymbol, span, msg).
//		WithNote(prev, "previous declaration here").
//		Emit()
//
// BagReporter stores diagnostics in a Bag, which supports limits, sorting and
// deduplication. DedupReporter and MultiReporter compose reporters. Rendering
// lives in internal/diagfmt.
//
// A nil Reporter is allowed everywhere: the builder helpers return a nil
// *ReportBuilder and every method on it is a no-op.
package diag
