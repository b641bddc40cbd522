// Package grep streams the lines of a list of log files that match a pattern.
package grep

import (
	"context"
	"iter"
	"regexp"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/logfile"
)

// Filter matches log lines against a compiled regular expression.
// It is safe for concurrent use.
type Filter struct {
	re *regexp.Regexp
}

// Compile compiles pattern once, before any file is read.
func Compile(pattern string) (*Filter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, werrors.InvalidPattern(pattern, err)
	}
	return &Filter{re: re}, nil
}

// Pattern returns the source pattern.
func (f *Filter) Pattern() string {
	return f.re.String()
}

// MatchLine reports whether the pattern matches anywhere in line.
func (f *Filter) MatchLine(line []byte) bool {
	return f.re.Match(line)
}

// Match is one matching line.
type Match struct {
	// Path is the file the line came from.
	Path string
	// LineNo is the 1-based line number within Path.
	LineNo int
	// Line is the line without its terminator. It is only valid until the
	// sequence advances.
	Line []byte
}

// Matches returns the matching lines of paths, in the order the paths are
// given and then in line order. Files are opened one at a time as the
// consumer reaches them, so matches are available before later files are
// read. The first file that cannot be read ends the sequence with its error.
//
// The sequence is single use.
func (f *Filter) Matches(ctx context.Context, paths []string) iter.Seq2[Match, error] {
	return func(yield func(Match, error) bool) {
		for _, path := range paths {
			if err := ctx.Err(); err != nil {
				yield(Match{}, err)
				return
			}
			if !f.matchFile(ctx, path, yield) {
				return
			}
		}
	}
}

// matchFile yields the matches of one file. It returns false once the
// sequence must stop.
func (f *Filter) matchFile(ctx context.Context, path string, yield func(Match, error) bool) bool {
	file, err := logfile.Open(path)
	if err != nil {
		yield(Match{}, err)
		return false
	}
	defer func() { _ = file.Close() }()

	n := 0
	for line, err := range logfile.Lines(file) {
		if err != nil {
			yield(Match{}, werrors.FileAccess(path, err))
			return false
		}
		n++
		if !f.re.Match(line) {
			continue
		}
		if err := ctx.Err(); err != nil {
			yield(Match{}, err)
			return false
		}
		if !yield(Match{Path: path, LineNo: n, Line: line}, nil) {
			return false
		}
	}
	return true
}
