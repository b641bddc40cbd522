package index

import (
	werrors "github.com/Aman-CERP/whosaid/internal/errors"
)

// Resolve returns the union of the files of every requested nickname.
//
// Resolution is all or nothing: the first nickname, in request order, that has
// no entry in idx fails the whole call with a NicknameNotFound error naming it.
func Resolve(idx Index, nicks []string) (PathSet, error) {
	if len(nicks) == 0 {
		return nil, werrors.ValidationError("at least one nickname is required", nil)
	}

	out := make(PathSet)
	for _, n := range nicks {
		paths, ok := idx[n]
		if !ok {
			return nil, werrors.NicknameNotFound(n)
		}
		for p := range paths {
			out[p] = struct{}{}
		}
	}
	return out, nil
}
