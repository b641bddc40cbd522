package index

import (
	"fmt"
	"io/fs"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of per-file partial indices a FileCache keeps.
const DefaultCacheSize = 4096

type cachedFile struct {
	size    int64
	modTime time.Time
	idx     Index
}

// FileCache remembers the partial index of recently scanned files so repeated
// crawls of a mostly unchanged tree skip re-reading them. An entry is only
// reused while the file's size and modification time are unchanged.
//
// Uses LRU eviction to bound memory on large log archives.
type FileCache struct {
	lru *lru.Cache[string, cachedFile]
}

// NewFileCache creates a cache holding at most size files.
func NewFileCache(size int) (*FileCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	c, err := lru.New[string, cachedFile](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create file cache: %w", err)
	}
	return &FileCache{lru: c}, nil
}

// Get returns the cached partial index for path if info still describes the
// file that was scanned.
func (c *FileCache) Get(path string, info fs.FileInfo) (Index, bool) {
	entry, ok := c.lru.Get(path)
	if !ok {
		return nil, false
	}
	if entry.size != info.Size() || !entry.modTime.Equal(info.ModTime()) {
		c.lru.Remove(path)
		return nil, false
	}
	return entry.idx, true
}

// Put records the partial index scanned from path.
func (c *FileCache) Put(path string, info fs.FileInfo, idx Index) {
	c.lru.Add(path, cachedFile{
		size:    info.Size(),
		modTime: info.ModTime(),
		idx:     idx,
	})
}

// Len returns the number of cached files.
func (c *FileCache) Len() int {
	return c.lru.Len()
}
