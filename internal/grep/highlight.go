package grep

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// matchColor is the ANSI red grep uses for matches.
const matchColor = "1"

// Highlighter marks the spans of a line matched by a Filter.
type Highlighter struct {
	filter *Filter
	style  lipgloss.Style
}

// NewHighlighter returns a Highlighter that always emits ANSI colour to w,
// whatever w is. Callers decide whether colour is wanted.
func NewHighlighter(f *Filter, w io.Writer) *Highlighter {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI)
	return &Highlighter{
		filter: f,
		style: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(matchColor)).
			Inline(true).
			TabWidth(lipgloss.NoTabConversion),
	}
}

// Highlight appends line to dst with every match wrapped in the match style.
func (h *Highlighter) Highlight(dst, line []byte) []byte {
	last := 0
	for _, loc := range h.filter.re.FindAllIndex(line, -1) {
		if loc[0] == loc[1] {
			continue
		}
		dst = append(dst, line[last:loc[0]]...)
		dst = append(dst, h.style.Render(string(line[loc[0]:loc[1]]))...)
		last = loc[1]
	}
	return append(dst, line[last:]...)
}
