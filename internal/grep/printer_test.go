package grep

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrinter_PlainOutput(t *testing.T) {
	// Given: the end-to-end log and a bob-only query
	dir := t.TempDir()
	path := writeFile(t, dir, "log1", "12:00 <alice> hi", "12:01 <+bob> hello there")
	f, err := Compile("hel")
	require.NoError(t, err)

	// When: printing every match
	var buf bytes.Buffer
	n, err := NewPrinter(&buf, PrintOptions{}).PrintAll(f.Matches(context.Background(), []string{path}))

	// Then: only the matching line is printed, unchanged
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "12:01 <+bob> hello there\n", buf.String())
}

func TestPrinter_Prefixes(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, PrintOptions{WithFilename: true, LineNumbers: true})

	require.NoError(t, p.Print(Match{Path: "logs/log1", LineNo: 7, Line: []byte("a")}))
	require.NoError(t, p.Print(Match{Path: "logs/log2", LineNo: 12, Line: []byte("b")}))

	assert.Equal(t, "logs/log1:7:a\nlogs/log2:12:b\n", buf.String())
}

func TestPrinter_PrintAllStopsOnSequenceError(t *testing.T) {
	dir := t.TempDir()
	ok := writeFile(t, dir, "ok.log", "hit")
	f, err := Compile("hit")
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := NewPrinter(&buf, PrintOptions{}).PrintAll(
		f.Matches(context.Background(), []string{ok, filepath.Join(dir, "missing")}))

	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "hit\n", buf.String())
}

var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string {
	return ansiRE.ReplaceAllString(s, "")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestPrinter_WriteErrorStops(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.log", "hit", "hit")
	f, err := Compile("hit")
	require.NoError(t, err)

	n, err := NewPrinter(failingWriter{}, PrintOptions{}).PrintAll(f.Matches(context.Background(), []string{path}))

	assert.EqualError(t, err, "broken pipe")
	assert.Equal(t, 0, n)
}

func TestHighlighter_WrapsEveryMatch(t *testing.T) {
	f, err := Compile("o+")
	require.NoError(t, err)
	var buf bytes.Buffer
	h := NewHighlighter(f, &buf)

	out := string(h.Highlight(nil, []byte("foo\tbar boo")))

	assert.Equal(t, "foo\tbar boo", stripANSI(out), "tabs and text are left alone")
	assert.Len(t, ansiRE.FindAllString(out, -1), 4, "two matches, each opened and reset")
}

func TestHighlighter_EmptyMatchesLeaveLineUnchanged(t *testing.T) {
	f, err := Compile("x*")
	require.NoError(t, err)
	h := NewHighlighter(f, &bytes.Buffer{})

	assert.Equal(t, "abc", string(h.Highlight(nil, []byte("abc"))))
}

func TestPrinter_WithHighlighter(t *testing.T) {
	f, err := Compile("hel")
	require.NoError(t, err)
	var buf bytes.Buffer
	p := NewPrinter(&buf, PrintOptions{Highlighter: NewHighlighter(f, &buf)})

	require.NoError(t, p.Print(Match{Line: []byte("hello")}))

	assert.Equal(t, "hello\n", stripANSI(buf.String()))
	assert.NotEqual(t, "hello\n", buf.String())
}
