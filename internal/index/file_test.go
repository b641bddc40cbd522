package index

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/nick"
)

func writeLog(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestNicknamesIn_CollapsesDuplicates(t *testing.T) {
	log := strings.Join([]string{
		"--- Log opened Sun Jan 01 00:00:00 2023",
		"12:00 <alice> hi",
		"12:01 <+bob> hello there",
		"12:02 <alice> again",
		"12:03 -!- carol has joined #go",
		"12:04 <@alice> now with ops",
		"",
	}, "\n")

	got, err := NicknamesIn(nick.Default(), strings.NewReader(log))

	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"alice": {}, "bob": {}}, got)
}

func TestIndexFile_MapsNicknamesToThePath(t *testing.T) {
	// Given: a log file with two speakers
	path := filepath.Join(t.TempDir(), "log1")
	writeLog(t, path, "12:00 <alice> hi", "12:01 <+bob> hello there")

	// When: indexing it
	got, err := IndexFile(nick.Default(), path)

	// Then: both nicknames point at the file
	require.NoError(t, err)
	want := Index{"alice": NewPathSet(path), "bob": NewPathSet(path)}
	assert.True(t, Equal(want, got))
}

func TestIndexFile_NoSpeakersIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quiet")
	writeLog(t, path, "-!- nobody here")

	got, err := IndexFile(nick.Default(), path)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndexFile_MissingFileIsFatal(t *testing.T) {
	_, err := IndexFile(nick.Default(), filepath.Join(t.TempDir(), "missing"))

	require.Error(t, err)
	assert.ErrorIs(t, err, werrors.ErrFileAccess)
	assert.True(t, werrors.IsFatal(err))
}

func TestIndexFile_UsesGivenExtractor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weechat.log")
	writeLog(t, path, "2023-01-01 12:00:00\talice\thi", "2023-01-01 12:00:01\t@bob\they")

	ex, err := nick.New(`^\S+ \S+\t[@+]?([^\t]+)\t`)
	require.NoError(t, err)

	got, err := IndexFile(ex, path)

	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got.Nicknames())
}
