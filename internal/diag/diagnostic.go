package diag

import (
	"shadec/internal/source"
)

// Note points at a secondary location, e.g. the previous declaration.
type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}
