package index

import (
	"io"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/logfile"
	"github.com/Aman-CERP/whosaid/internal/nick"
)

// NicknamesIn returns the distinct nicknames spoken in r.
func NicknamesIn(ex *nick.Extractor, r io.Reader) (map[string]struct{}, error) {
	nicks := make(map[string]struct{})
	for line, err := range logfile.Lines(r) {
		if err != nil {
			return nil, err
		}
		if n, ok := ex.Extract(line); ok {
			nicks[n] = struct{}{}
		}
	}
	return nicks, nil
}

// IndexFile scans the log file at path and returns its partial index.
// A file that cannot be opened or read fails the whole build.
func IndexFile(ex *nick.Extractor, path string) (Index, error) {
	f, err := logfile.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	nicks, err := NicknamesIn(ex, f)
	if err != nil {
		return nil, werrors.FileAccess(path, err)
	}
	return Single(nicks, path), nil
}
