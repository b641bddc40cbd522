package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/index"
)

// WriteFile writes idx to path as JSON. The index is written to a temporary
// file in the same directory and renamed into place while holding the index
// lock, so readers never see a partial index and a failed write leaves the
// previous file untouched.
func WriteFile(path string, idx index.Index, opts index.EncodeOptions) error {
	return Write(context.Background(), Target{Path: path, Format: FormatJSON, Pretty: opts.Pretty}, idx)
}

// writeJSON does the temp-file-and-rename part of WriteFile. The caller holds
// the lock.
func writeJSON(path string, idx index.Index, opts index.EncodeOptions) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return werrors.FileAccess(path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := index.Encode(tmp, idx, opts); err != nil {
		_ = tmp.Close()
		return werrors.FileAccess(path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return werrors.FileAccess(path, err)
	}
	if err := tmp.Close(); err != nil {
		return werrors.FileAccess(path, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return werrors.FileAccess(path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return werrors.FileAccess(path, fmt.Errorf("failed to replace index: %w", err))
	}
	return nil
}

// ReadFile reads a JSON index from path.
func ReadFile(path string) (index.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, werrors.FileAccess(path, err)
	}
	defer func() { _ = f.Close() }()
	return Read(f)
}

// Read reads a JSON index from r.
func Read(r io.Reader) (index.Index, error) {
	return index.Decode(r)
}

// statFile reports a FileAccess error for a missing or unreadable path, so
// that opening a database never creates one as a side effect.
func statFile(path string) (os.FileInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, werrors.FileAccess(path, err)
	}
	return info, nil
}
