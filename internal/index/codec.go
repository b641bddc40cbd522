package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
)

// EncodeOptions controls the JSON form written by Encode.
type EncodeOptions struct {
	// Pretty indents the output by four spaces. Keys are sorted either way.
	Pretty bool
}

// ToSerializable converts idx to its persisted shape: nickname to a sequence
// of paths. Paths are sorted so the output is stable.
func ToSerializable(idx Index) map[string][]string {
	out := make(map[string][]string, len(idx))
	for n, paths := range idx {
		out[n] = paths.Sorted()
	}
	return out
}

// FromSerializable converts the persisted shape back into an Index.
// Repeated paths collapse.
func FromSerializable(m map[string][]string) Index {
	idx := make(Index, len(m))
	for n, paths := range m {
		idx[n] = NewPathSet(paths...)
	}
	return idx
}

// Encode writes idx to w as a JSON object mapping each nickname to an array of
// paths, followed by a newline.
func Encode(w io.Writer, idx Index, opts EncodeOptions) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if opts.Pretty {
		enc.SetIndent("", "    ")
	}
	if err := enc.Encode(ToSerializable(idx)); err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}
	return nil
}

// Decode reads an index written by Encode. Input that is not a single JSON
// object of string arrays is a malformed index.
func Decode(r io.Reader) (Index, error) {
	dec := json.NewDecoder(r)

	var m map[string][]string
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, werrors.MalformedIndex("index input is empty", err)
		}
		return nil, werrors.MalformedIndex("index is not a mapping of nicknames to path lists", err)
	}
	if m == nil {
		return nil, werrors.MalformedIndex("index is null", nil)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, werrors.MalformedIndex("unexpected data after index", err)
	}

	return FromSerializable(m), nil
}
