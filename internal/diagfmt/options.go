package diagfmt

import (
	"fmt"

	"shadec/internal/source"
)

// Locator renders a span for humans. Description files have no lines and
// columns, so a location is whatever the producer of the spans can tell.
type Locator interface {
	Locate(span source.Span) string
}

// FileLocator renders spans as path#position using a FileSet.
type FileLocator struct{ FS *source.FileSet }

func (l FileLocator) Locate(span source.Span) string {
	if l.FS == nil {
		return span.String()
	}
	path := l.FS.Path(span.File)
	if span.Start == 0 && span.End == 0 {
		return path
	}
	return fmt.Sprintf("%s#%d", path, span.Start)
}

// PrettyOpts configures pretty-printing of diagnostics.
type PrettyOpts struct {
	Color     bool
	Width     int // максимальная ширина строки, 0 - не ограничено
	ShowNotes bool
}

// JSONOpts configures JSON output of diagnostics.
type JSONOpts struct {
	Max          int // обрезка вывода, не Bag
	IncludeNotes bool
}
