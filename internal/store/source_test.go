package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/index"
)

func TestOpenSource_SameAnswersForEveryFormat(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	jsonPath := filepath.Join(dir, "nicks.json")
	dbPath := filepath.Join(dir, "nicks.db")
	require.NoError(t, Write(ctx, Target{Path: jsonPath}, sampleIndex()))
	require.NoError(t, Write(ctx, Target{Path: dbPath}, sampleIndex()))

	var stdinBuf strings.Builder
	require.NoError(t, index.Encode(&stdinBuf, sampleIndex(), index.EncodeOptions{}))

	tests := []struct {
		name  string
		path  string
		stdin string
	}{
		{"json file", jsonPath, ""},
		{"sqlite file", dbPath, ""},
		{"stdin", "", stdinBuf.String()},
		{"dash", "-", stdinBuf.String()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := OpenSource(tt.path, "", strings.NewReader(tt.stdin))
			require.NoError(t, err)
			defer func() { _ = src.Close() }()

			paths, err := src.Resolve(ctx, []string{"alice", "bob"})
			require.NoError(t, err)
			assert.Equal(t, []string{"logs/a.log", "logs/b.log"}, paths.Sorted())

			_, err = src.Resolve(ctx, []string{"bob", "carol"})
			nick, ok := werrors.Nickname(err)
			assert.True(t, ok)
			assert.Equal(t, "carol", nick)

			counts, err := src.Nicknames(ctx)
			require.NoError(t, err)
			assert.Equal(t, []NicknameCount{{"alice", 2}, {"bob", 1}}, counts)
		})
	}
}

func TestOpenSource_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := OpenSource("", FormatSQLite, strings.NewReader(""))
	assert.ErrorIs(t, err, werrors.ErrInvalidInput)

	_, err = OpenSource(filepath.Join(dir, "missing.db"), "", nil)
	assert.ErrorIs(t, err, werrors.ErrFileAccess)
	assert.NoFileExists(t, filepath.Join(dir, "missing.db"))

	_, err = OpenSource(filepath.Join(dir, "missing.json"), "", nil)
	assert.ErrorIs(t, err, werrors.ErrFileAccess)

	_, err = OpenSource("-", "", strings.NewReader("not json"))
	assert.ErrorIs(t, err, werrors.ErrMalformedIndex)
}

func TestWrite_NoWaitWhileLocked(t *testing.T) {
	// Given: another writer holding the index lock
	path := filepath.Join(t.TempDir(), "nicks.json")
	held := NewFileLock(path)
	require.NoError(t, held.Lock())
	defer func() { _ = held.Unlock() }()

	// When: writing without waiting
	err := Write(context.Background(), Target{Path: path, NoWait: true}, sampleIndex())

	// Then: the write is refused and nothing is written
	assert.ErrorIs(t, err, werrors.ErrIndexLocked)
	assert.NoFileExists(t, path)
}

func TestWrite_RequiresPath(t *testing.T) {
	err := Write(context.Background(), Target{Path: "-"}, sampleIndex())
	assert.ErrorIs(t, err, werrors.ErrInvalidInput)
}

func TestWrite_SQLiteByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nicks.sqlite")
	require.NoError(t, Write(context.Background(), Target{Path: path}, sampleIndex()))

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, index.Equal(sampleIndex(), got))
}

func TestOpenSource_SQLiteIsReadOnly(t *testing.T) {
	// Given: a SQLite database that is not a whosaid index
	path := filepath.Join(t.TempDir(), "other.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE messages (body TEXT)")
	require.NoError(t, err)
	require.NoError(t, db.Close())
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// When: opening it as an index
	_, err = OpenSource(path, "", nil)

	// Then: it is malformed and the file is left untouched
	assert.ErrorIs(t, err, werrors.ErrMalformedIndex)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestOpenSQLiteReadOnly_RejectsWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nicks.db")
	require.NoError(t, Write(context.Background(), Target{Path: path}, sampleIndex()))

	s, err := OpenSQLiteReadOnly(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, index.Equal(sampleIndex(), got))
	assert.Error(t, s.Save(context.Background(), sampleIndex()))
}
