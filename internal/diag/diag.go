// Package diag carries reconciliation diagnostics from the engine to
// whatever the host tool does with them: terminal output, test
// assertions, or the run store.
package diag

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"declcheck/internal/decl"
)

type Severity int

const (
	SeverityWarning Severity = iota
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	}
	return "unknown"
}

// Diagnostic is one reported finding at a source location.
type Diagnostic struct {
	Loc      decl.Location
	Severity Severity
	Msg      string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Loc, d.Severity, d.Msg)
}

// Sink receives diagnostics as they are produced.
type Sink interface {
	Report(d Diagnostic)
}

// Collector is a Sink that buffers everything it receives.
type Collector struct {
	Diagnostics []Diagnostic
}

func (c *Collector) Report(d Diagnostic) {
	c.Diagnostics = append(c.Diagnostics, d)
}

// Writer is a Sink that prints compiler-style lines
// ("file:line:col: warning: msg"), with the severity colorized when the
// destination is a terminal.
type Writer struct {
	Out   io.Writer
	Color bool
}

// NewWriter builds a Writer for out, enabling color only when out is a
// terminal.
func NewWriter(out io.Writer) *Writer {
	color := false
	if f, ok := out.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Writer{Out: out, Color: color}
}

const (
	ansiMagenta = "\x1b[35m"
	ansiReset   = "\x1b[0m"
)

func (w *Writer) Report(d Diagnostic) {
	severity := d.Severity.String()
	if w.Color {
		severity = ansiMagenta + severity + ansiReset
	}
	fmt.Fprintf(w.Out, "%s: %s: %s\n", d.Loc, severity, d.Msg)
}
