package grep

import (
	"io"
	"iter"
	"strconv"
)

// PrintOptions controls how matches are written.
type PrintOptions struct {
	// WithFilename prefixes each line with "path:".
	WithFilename bool
	// LineNumbers prefixes each line with "lineno:".
	LineNumbers bool
	// Highlighter colours matches when set.
	Highlighter *Highlighter
}

// Printer writes matches one per line. Each line is a single Write so output
// appears as soon as a match is found.
type Printer struct {
	w    io.Writer
	opts PrintOptions
	buf  []byte
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer, opts PrintOptions) *Printer {
	return &Printer{w: w, opts: opts}
}

// Print writes one match.
func (p *Printer) Print(m Match) error {
	b := p.buf[:0]
	if p.opts.WithFilename {
		b = append(b, m.Path...)
		b = append(b, ':')
	}
	if p.opts.LineNumbers {
		b = strconv.AppendInt(b, int64(m.LineNo), 10)
		b = append(b, ':')
	}
	if p.opts.Highlighter != nil {
		b = p.opts.Highlighter.Highlight(b, m.Line)
	} else {
		b = append(b, m.Line...)
	}
	b = append(b, '\n')
	p.buf = b

	_, err := p.w.Write(b)
	return err
}

// PrintAll drains matches, printing each one. It returns the number of lines
// printed and the first error from the sequence or the writer. Lines printed
// before an error stay printed.
func (p *Printer) PrintAll(matches iter.Seq2[Match, error]) (int, error) {
	n := 0
	for m, err := range matches {
		if err != nil {
			return n, err
		}
		if err := p.Print(m); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
