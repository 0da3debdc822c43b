package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"shadec/internal/diag"
)

type palette struct {
	err, warn, info, code, loc, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow, color.Bold),
		info: color.New(color.FgCyan),
		code: color.New(color.Bold),
		loc:  color.New(color.Faint),
		note: color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.loc, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее). Each diagnostic is
//
//	<location>: <SEV> <CODE>: <message>
//	  note: <location>: <message>
//
// Lines longer than opts.Width are truncated.
func Pretty(w io.Writer, bag *diag.Bag, loc Locator, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		head := fmt.Sprintf("%s: %s %s: %s",
			p.loc.Sprint(loc.Locate(d.Primary)),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(d.Code.ID()),
			d.Message)
		if _, err := fmt.Fprintln(w, clip(head, opts.Width)); err != nil {
			return err
		}
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			line := fmt.Sprintf("  %s %s: %s", p.note.Sprint("note:"), p.loc.Sprint(loc.Locate(n.Span)), n.Msg)
			if _, err := fmt.Fprintln(w, clip(line, opts.Width)); err != nil {
				return err
			}
		}
	}
	if dropped := bag.Dropped(); dropped > 0 {
		if _, err := fmt.Fprintf(w, "... %d more diagnostics not shown\n", dropped); err != nil {
			return err
		}
	}
	return nil
}

// Summary returns "N errors, M warnings" for bag, or "" when it is empty.
func Summary(bag *diag.Bag) string {
	errs := bag.Count(diag.SevError)
	warns := bag.Count(diag.SevWarning) - errs
	infos := bag.Len() - errs - warns
	var parts []string
	for _, c := range []struct {
		n    int
		noun string
	}{{errs, "error"}, {warns, "warning"}, {infos, "note"}} {
		switch {
		case c.n == 1:
			parts = append(parts, "1 "+c.noun)
		case c.n > 1:
			parts = append(parts, fmt.Sprintf("%d %ss", c.n, c.noun))
		}
	}
	return strings.Join(parts, ", ")
}

// clip truncates s to width display cells. Colored lines are left alone.
func clip(s string, width int) string {
	if width <= 0 || strings.Contains(s, "\x1b[") {
		return s
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}
