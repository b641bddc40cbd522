package store

import (
	"context"
	"io"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/index"
)

// Source is a persisted index opened for queries.
type Source interface {
	// Resolve returns the union of the files of nicks. The first unknown
	// nickname, in request order, is a NicknameNotFound error.
	Resolve(ctx context.Context, nicks []string) (index.PathSet, error)
	// Nicknames lists every nickname with its file count, sorted.
	Nicknames(ctx context.Context) ([]NicknameCount, error)
	Close() error
}

// OpenSource opens the index at path. An empty path or "-" reads JSON from
// stdin, which cannot hold a SQLite index.
func OpenSource(path string, format Format, stdin io.Reader) (Source, error) {
	format = DetectFormat(path, format)

	if path == "" || path == "-" {
		if format == FormatSQLite {
			return nil, werrors.ValidationError("a SQLite index cannot be read from stdin; pass -i FILE", nil)
		}
		idx, err := Read(stdin)
		if err != nil {
			return nil, err
		}
		return memorySource{idx: idx}, nil
	}

	if format == FormatSQLite {
		return OpenSQLiteReadOnly(path)
	}

	idx, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return memorySource{idx: idx}, nil
}

// memorySource serves queries from a decoded JSON index.
type memorySource struct {
	idx index.Index
}

func (m memorySource) Resolve(_ context.Context, nicks []string) (index.PathSet, error) {
	return index.Resolve(m.idx, nicks)
}

func (m memorySource) Nicknames(context.Context) ([]NicknameCount, error) {
	return Counts(m.idx), nil
}

func (memorySource) Close() error { return nil }
