// Package output writes human-facing status lines for the CLI and decides
// whether a stream is a terminal.
//
// Status output goes to stderr; stdout carries only index JSON and matching
// lines so it can be piped.
package output

import (
	"fmt"
	"io"
)

// Writer prints status messages.
type Writer struct {
	out   io.Writer
	quiet bool
}

// New creates a Writer over out.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// SetQuiet suppresses Status and Success. Warnings and errors still print.
func (w *Writer) SetQuiet(quiet bool) {
	w.quiet = quiet
}

// Status prints a message with an icon, or indented when icon is empty.
// Write errors are ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if w.quiet {
		return
	}
	w.line(icon, msg)
}

// Statusf prints a formatted status message.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a message with a checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.line("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.line("❌", msg)
}

// Path prints a bare path, one per line, as verbose crawls do.
func (w *Writer) Path(p string) {
	_, _ = fmt.Fprintln(w.out, p)
}

func (w *Writer) line(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}
