package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCache_InvalidatesOnChange(t *testing.T) {
	// Given: a cached entry for a file
	path := filepath.Join(t.TempDir(), "log1")
	require.NoError(t, os.WriteFile(path, []byte("12:00 <alice> hi\n"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	cache, err := NewFileCache(2)
	require.NoError(t, err)
	want := idxOf(map[string][]string{"alice": {path}})
	cache.Put(path, info, want)

	// When/Then: the unchanged file hits
	got, ok := cache.Get(path, info)
	require.True(t, ok)
	assert.True(t, Equal(want, got))

	// When: the file grows
	require.NoError(t, os.WriteFile(path, []byte("12:00 <alice> hi\n12:01 <bob> yo\n"), 0o644))
	info, err = os.Stat(path)
	require.NoError(t, err)

	// Then: the entry is dropped
	_, ok = cache.Get(path, info)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestFileCache_MtimeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log1")
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)

	cache, err := NewFileCache(2)
	require.NoError(t, err)
	cache.Put(path, info, Index{})

	later := info.ModTime().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))
	info, err = os.Stat(path)
	require.NoError(t, err)

	_, ok := cache.Get(path, info)
	assert.False(t, ok)
}

func TestFileCache_Evicts(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewFileCache(2)
	require.NoError(t, err)

	for _, name := range []string{"a", "b", "c"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(name), 0o644))
		info, err := os.Stat(p)
		require.NoError(t, err)
		cache.Put(p, info, Index{})
	}

	assert.Equal(t, 2, cache.Len())
	info, err := os.Stat(filepath.Join(dir, "a"))
	require.NoError(t, err)
	_, ok := cache.Get(filepath.Join(dir, "a"), info)
	assert.False(t, ok, "oldest entry evicted")
}
