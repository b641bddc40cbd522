package index

import (
	"maps"
	"slices"
)

// PathSet is a set of log file paths.
type PathSet map[string]struct{}

// NewPathSet returns a set holding paths.
func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		s[p] = struct{}{}
	}
	return s
}

// Contains reports whether p is in the set.
func (s PathSet) Contains(p string) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the paths in lexical order. Filtering walks files in this
// order so query output is reproducible.
func (s PathSet) Sorted() []string {
	return slices.Sorted(maps.Keys(s))
}

// Union returns a new set with the members of s and other.
func (s PathSet) Union(other PathSet) PathSet {
	out := make(PathSet, len(s)+len(other))
	for p := range s {
		out[p] = struct{}{}
	}
	for p := range other {
		out[p] = struct{}{}
	}
	return out
}

// Index maps a nickname to the set of files it appears in.
// A nil Index is the empty index.
type Index map[string]PathSet

// Single returns the partial index of one file: every nickname maps to {path}.
func Single(nicks map[string]struct{}, path string) Index {
	idx := make(Index, len(nicks))
	for n := range nicks {
		idx[n] = NewPathSet(path)
	}
	return idx
}

// Merge combines two indices. Nicknames present in both get the union of their
// sets; nicknames present in one are carried over. The result shares no sets
// with a or b.
func Merge(a, b Index) Index {
	out := make(Index, max(len(a), len(b)))
	for n, paths := range a {
		if other, ok := b[n]; ok {
			out[n] = paths.Union(other)
			continue
		}
		out[n] = maps.Clone(paths)
	}
	for n, paths := range b {
		if _, ok := a[n]; !ok {
			out[n] = maps.Clone(paths)
		}
	}
	return out
}

// MergeAll folds parts with Merge, starting from the empty index.
func MergeAll(parts ...Index) Index {
	var acc Index
	for _, p := range parts {
		acc = Merge(acc, p)
	}
	if acc == nil {
		acc = Index{}
	}
	return acc
}

// Equal reports whether a and b have the same nicknames with the same sets.
func Equal(a, b Index) bool {
	if len(a) != len(b) {
		return false
	}
	for n, pa := range a {
		pb, ok := b[n]
		if !ok || !maps.Equal(pa, pb) {
			return false
		}
	}
	return true
}

// Nicknames returns the nicknames in idx in lexical order.
func (idx Index) Nicknames() []string {
	return slices.Sorted(maps.Keys(idx))
}

// Files returns the set of every path in idx.
func (idx Index) Files() PathSet {
	out := make(PathSet)
	for _, paths := range idx {
		for p := range paths {
			out[p] = struct{}{}
		}
	}
	return out
}

// Clone returns a deep copy of idx.
func (idx Index) Clone() Index {
	return Merge(idx, nil)
}
