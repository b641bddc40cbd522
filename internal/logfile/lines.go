// Package logfile reads chat log files line by line as raw bytes.
package logfile

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"iter"
	"os"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
)

// readBufferSize is the initial buffer for line reads. Lines longer than this
// are still returned whole.
const readBufferSize = 64 * 1024

// Lines returns a sequence over the lines of r with the trailing "\n" or
// "\r\n" removed. A final line without a terminator is included. A read error
// is yielded once and ends the sequence.
//
// The yielded slice is only valid until the next iteration.
func Lines(r io.Reader) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		br := bufio.NewReaderSize(r, readBufferSize)
		var long []byte
		for {
			chunk, err := br.ReadSlice('\n')
			if errors.Is(err, bufio.ErrBufferFull) {
				long = append(long, chunk...)
				continue
			}

			line := chunk
			if long != nil {
				long = append(long, chunk...)
				line = long
			}

			if len(line) > 0 && (err == nil || errors.Is(err, io.EOF)) {
				if !yield(trimEOL(line), nil) {
					return
				}
			}
			long = nil

			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield(nil, err)
				}
				return
			}
		}
	}
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	return bytes.TrimSuffix(line, []byte{'\r'})
}

// Open opens a log file for reading. Failures are reported as file access
// errors naming the path.
func Open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, werrors.FileAccess(path, err)
	}
	return f, nil
}
