package cmd

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/whosaid/internal/index"
	"github.com/Aman-CERP/whosaid/internal/nick"
	"github.com/Aman-CERP/whosaid/internal/output"
	"github.com/Aman-CERP/whosaid/internal/store"
	"github.com/Aman-CERP/whosaid/internal/watcher"
)

// watchOptions holds CLI flags for watch.
type watchOptions struct {
	buildOptions
	debounce time.Duration
}

func newWatchCmd(a *app) *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch [flags] LOGDIR",
		Short: "Rebuild the index whenever LOGDIR changes",
		Long: `Build the index of LOGDIR, then rebuild it after every burst of changes
until interrupted. Files whose size and modification time are unchanged are
not read again.

Examples:
  whosaid watch -o nicks.json ~/irclogs
  whosaid watch --debounce 2s -o nicks.db ~/irclogs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.resolve(cmd, a.cfg)
			if !cmd.Flags().Changed("debounce") && a.cfg != nil {
				opts.debounce = a.cfg.DebounceDuration()
			}
			cacheSize := index.DefaultCacheSize
			if a.cfg != nil {
				cacheSize = a.cfg.Index.CacheSize
			}
			return runWatch(cmd.Context(), cmd, args[0], opts, cacheSize)
		},
	}

	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print each visited file on stderr")
	cmd.Flags().StringVarP(&opts.outfile, "outfile", "o", "", "Write the index to this file (default: stdout, one document per rebuild)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Index format: json or sqlite (default: from outfile extension)")
	cmd.Flags().IntVar(&opts.workers, "workers", 1, "Directories scanned concurrently (0 = one per CPU)")
	cmd.Flags().StringVar(&opts.nickPattern, "nick-pattern", nick.DefaultPattern, "Regex whose first group is the speaker's nickname")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent JSON written to --outfile (stdout is always indented)")
	cmd.Flags().DurationVar(&opts.debounce, "debounce", 500*time.Millisecond, "Quiet period after a change before rebuilding")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, logDir string, opts watchOptions, cacheSize int) error {
	format, err := store.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	ex, err := nick.New(opts.nickPattern)
	if err != nil {
		return err
	}

	crawlOpts := []index.Option{
		index.WithExtractor(ex),
		index.WithWorkers(opts.workers),
	}
	if cacheSize > 0 {
		cache, err := index.NewFileCache(cacheSize)
		if err != nil {
			return err
		}
		crawlOpts = append(crawlOpts, index.WithCache(cache))
	}
	status := output.New(cmd.ErrOrStderr())
	if opts.verbose {
		crawlOpts = append(crawlOpts, index.WithVisitFunc(status.Path))
	}
	crawler := index.NewCrawler(crawlOpts...)

	rebuild := func() error {
		start := time.Now()
		idx, stats, err := crawler.CrawlWithStats(ctx, logDir)
		if err != nil {
			return err
		}
		if err := emitIndex(ctx, cmd, idx, opts.outfile, format, opts.pretty, false); err != nil {
			return err
		}
		status.Successf("indexed %d files (%d unchanged), %d nicknames in %s",
			stats.Files, stats.CachedFiles, len(idx), time.Since(start).Round(time.Millisecond))
		return nil
	}

	if err := rebuild(); err != nil {
		return err
	}

	w, err := watcher.NewFSWatcher(watcher.Options{
		Debounce: opts.debounce,
		Ignore:   outputIgnorer(opts.outfile),
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	started := make(chan error, 1)
	go func() { started <- w.Start(ctx, logDir) }()
	status.Statusf("👀", "watching %s", logDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-started:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			slog.Debug("change detected", slog.Int("events", len(batch)), slog.String("first", batch[0].Path))
			if err := rebuild(); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				// Keep watching; the next change may fix the tree.
				slog.Warn("rebuild failed", slog.String("error", err.Error()))
				status.Warningf("rebuild failed: %v", err)
			}
		case err := <-w.Errors():
			slog.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

// outputIgnorer reports the index file and its lock, temp and journal files,
// so writing the index does not trigger another rebuild.
func outputIgnorer(outfile string) func(string) bool {
	if outfile == "" || outfile == "-" {
		return nil
	}
	abs, err := filepath.Abs(outfile)
	if err != nil {
		return nil
	}
	dir, base := filepath.Dir(abs), filepath.Base(abs)
	names := map[string]bool{
		base:              true,
		base + ".lock":    true,
		base + "-journal": true,
		base + "-wal":     true,
		base + "-shm":     true,
	}
	return func(p string) bool {
		if filepath.Dir(p) != dir {
			return false
		}
		name := filepath.Base(p)
		if names[name] {
			return true
		}
		// Temp files from the atomic JSON write: .<base>.<random>.tmp
		return strings.HasPrefix(name, "."+base+".") && strings.HasSuffix(name, ".tmp")
	}
}
