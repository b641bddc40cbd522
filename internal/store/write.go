package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/index"
)

// Target describes where and how an index is persisted.
type Target struct {
	Path   string
	Format Format
	// Pretty indents JSON output. Ignored for SQLite.
	Pretty bool
	// NoWait fails with an IndexLocked error instead of waiting for another
	// writer to finish.
	NoWait bool
}

// Write persists idx to t.Path while holding the lock on it. The format is
// t.Format, or the one implied by the path extension when unset.
func Write(ctx context.Context, t Target, idx index.Index) (err error) {
	if t.Path == "" || t.Path == "-" {
		return werrors.ValidationError("an output file is required", nil)
	}
	if err := os.MkdirAll(filepath.Dir(t.Path), 0o755); err != nil {
		return werrors.FileAccess(t.Path, err)
	}

	lock := NewFileLock(t.Path)
	if t.NoWait {
		err = lock.TryLock()
	} else {
		err = lock.Lock()
	}
	if err != nil {
		if werrors.GetCode(err) != "" {
			return err
		}
		return werrors.FileAccess(t.Path, err)
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil && err == nil {
			err = werrors.FileAccess(t.Path, unlockErr)
		}
	}()

	switch DetectFormat(t.Path, t.Format) {
	case FormatSQLite:
		return writeSQLite(ctx, t.Path, idx)
	default:
		return writeJSON(t.Path, idx, index.EncodeOptions{Pretty: t.Pretty})
	}
}

// writeSQLite replaces the postings of the database at path. The caller holds
// the lock.
func writeSQLite(ctx context.Context, path string, idx index.Index) (err error) {
	s, err := OpenSQLite(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = werrors.FileAccess(path, closeErr)
		}
	}()
	if err := s.Save(ctx, idx); err != nil {
		return werrors.FileAccess(path, fmt.Errorf("failed to save index: %w", err))
	}
	return nil
}
