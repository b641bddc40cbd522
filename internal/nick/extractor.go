// Package nick extracts speaker nicknames from chat log lines.
//
// A line attributed to a speaker starts with a short timestamp followed by the
// nickname in angle brackets, optionally prefixed by a channel status
// character:
//
//	12:34 <alice> hello
//	12:34 <+bob> hi
//	1234<@carol> yo
//
// The extraction rule is a compiled pattern owned by an Extractor value, so
// callers can swap it without touching process-wide state.
package nick

import (
	"regexp"
	"strings"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
)

// DefaultPattern matches irssi-style log lines. Group 1 is the nickname.
const DefaultPattern = `^[0-9:]{4,8} ?<[+@]?([^ ]+)>`

// Extractor pulls the nickname out of a single log line.
// It is safe for concurrent use.
type Extractor struct {
	re *regexp.Regexp
}

// New compiles pattern into an Extractor. The first capture group of the
// pattern is the nickname. Patterns are always matched at the start of the
// line; a pattern without a leading ^ is anchored.
func New(pattern string) (*Extractor, error) {
	anchored := pattern
	if !strings.HasPrefix(pattern, "^") {
		anchored = "^(?:" + pattern + ")"
	}

	re, err := regexp.Compile(anchored)
	if err != nil {
		return nil, werrors.InvalidPattern(pattern, err)
	}
	if re.NumSubexp() < 1 {
		return nil, werrors.InvalidPattern(pattern, nil).
			WithSuggestion("the nickname pattern needs a capture group around the nickname")
	}

	return &Extractor{re: re}, nil
}

// Default returns an Extractor for DefaultPattern.
func Default() *Extractor {
	return &Extractor{re: defaultRE}
}

var defaultRE = regexp.MustCompile(DefaultPattern)

// Extract returns the nickname of the speaker of line. Only the first match,
// anchored at the start of the line, is considered. An empty capture counts
// as no match.
func (e *Extractor) Extract(line []byte) (string, bool) {
	m := e.re.FindSubmatchIndex(line)
	if m == nil || m[2] < 0 || m[3] <= m[2] {
		return "", false
	}
	return string(line[m[2]:m[3]]), true
}

// Pattern returns the source pattern, including any anchoring added by New.
func (e *Extractor) Pattern() string {
	return e.re.String()
}
