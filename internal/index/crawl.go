package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/nick"
)

// Crawler builds an index from a directory tree.
type Crawler struct {
	extractor *nick.Extractor
	workers   int
	cache     *FileCache
	logger    *slog.Logger

	visitMu sync.Mutex
	visit   func(path string)
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithExtractor sets the nickname extraction rule (default: nick.Default()).
func WithExtractor(ex *nick.Extractor) Option {
	return func(c *Crawler) {
		if ex != nil {
			c.extractor = ex
		}
	}
}

// WithVisitFunc registers fn to be called with the path of every regular file
// the crawl visits. Calls are serialized.
func WithVisitFunc(fn func(path string)) Option {
	return func(c *Crawler) {
		c.visit = fn
	}
}

// WithWorkers bounds the number of entries scanned at once. 1 (the default)
// crawls synchronously, depth first.
func WithWorkers(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithCache reuses partial indices of unchanged files across crawls.
func WithCache(cache *FileCache) Option {
	return func(c *Crawler) {
		c.cache = cache
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCrawler creates a Crawler.
func NewCrawler(opts ...Option) *Crawler {
	c := &Crawler{
		extractor: nick.Default(),
		workers:   1,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stats describes one crawl.
type Stats struct {
	Files       int64
	CachedFiles int64
	Dirs        int64
	Skipped     int64
}

// Crawl indexes every regular file under root.
func (c *Crawler) Crawl(ctx context.Context, root string) (Index, error) {
	idx, _, err := c.CrawlWithStats(ctx, root)
	return idx, err
}

// CrawlWithStats is Crawl that also reports what was visited.
//
// Entries are classified by following symlinks. A directory that resolves to
// one of its own ancestors is skipped, which breaks symlink cycles; any other
// directory reachable through several links is indexed under each path.
func (c *Crawler) CrawlWithStats(ctx context.Context, root string) (Index, Stats, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, Stats{}, werrors.FileAccess(root, err)
	}
	if !info.IsDir() {
		return nil, Stats{}, werrors.FileAccess(root, fmt.Errorf("not a directory"))
	}

	w := &walk{Crawler: c}
	if c.workers > 1 {
		// The calling goroutine is always one of the workers.
		w.sem = semaphore.NewWeighted(int64(c.workers - 1))
	}

	idx, err := w.dir(ctx, root, []fs.FileInfo{info})
	stats := Stats{
		Files:       w.files.Load(),
		CachedFiles: w.cached.Load(),
		Dirs:        w.dirs.Load(),
		Skipped:     w.skipped.Load(),
	}
	if err != nil {
		return nil, stats, err
	}

	c.logger.Debug("crawl complete",
		slog.String("root", root),
		slog.Int64("files", stats.Files),
		slog.Int64("cached_files", stats.CachedFiles),
		slog.Int64("dirs", stats.Dirs),
		slog.Int("nicknames", len(idx)))
	return idx, stats, nil
}

// walk holds the state of a single crawl.
type walk struct {
	*Crawler
	sem *semaphore.Weighted

	files   atomic.Int64
	cached  atomic.Int64
	dirs    atomic.Int64
	skipped atomic.Int64
}

// dir returns the partial index of everything under dir. ancestors ends with
// dir itself.
func (w *walk) dir(ctx context.Context, dir string, ancestors []fs.FileInfo) (Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, werrors.FileAccess(dir, err)
	}
	w.dirs.Add(1)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	parts := make([]Index, len(entries))
	for i, e := range entries {
		if gctx.Err() != nil {
			break
		}

		path := filepath.Join(dir, e.Name())
		task := func() error {
			idx, err := w.entry(gctx, path, ancestors)
			if err != nil {
				return err
			}
			parts[i] = idx
			return nil
		}

		if w.sem != nil && w.sem.TryAcquire(1) {
			g.Go(func() error {
				defer w.sem.Release(1)
				return task()
			})
			continue
		}
		if err := task(); err != nil {
			cancel()
			_ = g.Wait()
			return nil, err
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return MergeAll(parts...), nil
}

func (w *walk) entry(ctx context.Context, path string, ancestors []fs.FileInfo) (Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// Dangling symlink: neither a file nor a directory.
			w.skipped.Add(1)
			w.logger.Debug("skipping dangling entry", slog.String("path", path))
			return nil, nil
		}
		return nil, werrors.FileAccess(path, err)
	}

	switch {
	case info.Mode().IsRegular():
		return w.file(path, info)
	case info.IsDir():
		for _, a := range ancestors {
			if os.SameFile(a, info) {
				w.skipped.Add(1)
				w.logger.Warn("skipping directory cycle", slog.String("path", path))
				return nil, nil
			}
		}
		return w.dir(ctx, path, append(slices.Clip(ancestors), info))
	default:
		w.skipped.Add(1)
		return nil, nil
	}
}

func (w *walk) file(path string, info fs.FileInfo) (Index, error) {
	w.report(path)
	w.files.Add(1)

	if w.cache != nil {
		if idx, ok := w.cache.Get(path, info); ok {
			w.cached.Add(1)
			return idx, nil
		}
	}

	idx, err := IndexFile(w.extractor, path)
	if err != nil {
		return nil, err
	}
	if w.cache != nil {
		w.cache.Put(path, info, idx)
	}
	return idx, nil
}

func (w *walk) report(path string) {
	if w.visit == nil {
		return
	}
	w.visitMu.Lock()
	defer w.visitMu.Unlock()
	w.visit(path)
}
