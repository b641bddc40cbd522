package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/whosaid/internal/config"
	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/index"
	"github.com/Aman-CERP/whosaid/internal/nick"
	"github.com/Aman-CERP/whosaid/internal/output"
	"github.com/Aman-CERP/whosaid/internal/store"
)

// buildOptions holds CLI flags for build.
type buildOptions struct {
	verbose     bool
	outfile     string
	format      string
	workers     int
	nickPattern string
	pretty      bool
	noWait      bool
}

func newBuildCmd(a *app) *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:     "build [flags] LOGDIR",
		Aliases: []string{"index", "rebuild-db"},
		Short:   "Build the nickname index of a log directory",
		Long: `Walk LOGDIR recursively and record, for every nickname that speaks in a
file, the files it speaks in. The index is written as JSON to stdout or to
--outfile; a .db or .sqlite outfile (or --format sqlite) writes SQLite.

Nothing is written unless the whole tree was indexed.

Examples:
  whosaid build ~/irclogs > nicks.json
  whosaid build -v -o nicks.json ~/irclogs
  whosaid build --workers 8 -o nicks.db ~/irclogs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.resolve(cmd, a.cfg)
			return runBuild(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print each visited file on stderr")
	cmd.Flags().StringVarP(&opts.outfile, "outfile", "o", "", "Write the index to this file (default: stdout)")
	cmd.Flags().StringVar(&opts.format, "format", "", "Index format: json or sqlite (default: from outfile extension)")
	cmd.Flags().IntVar(&opts.workers, "workers", 1, "Directories scanned concurrently (0 = one per CPU)")
	cmd.Flags().StringVar(&opts.nickPattern, "nick-pattern", nick.DefaultPattern, "Regex whose first group is the speaker's nickname")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent JSON written to --outfile (stdout is always indented)")
	cmd.Flags().BoolVar(&opts.noWait, "no-wait", false, "Fail instead of waiting when another process is writing the outfile")

	return cmd
}

// resolve fills options the user did not set from configuration.
func (o *buildOptions) resolve(cmd *cobra.Command, cfg *config.Config) {
	if cfg == nil {
		return
	}
	if !cmd.Flags().Changed("workers") {
		o.workers = cfg.Index.Workers
	}
	if !cmd.Flags().Changed("nick-pattern") {
		o.nickPattern = cfg.Index.NickPattern
	}
	if o.workers == 0 {
		o.workers = config.DefaultWorkers()
	}
}

func runBuild(ctx context.Context, cmd *cobra.Command, logDir string, opts buildOptions) error {
	format, err := store.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	if opts.workers < 0 {
		return werrors.ValidationError(fmt.Sprintf("--workers must be non-negative, got %d", opts.workers), nil)
	}
	ex, err := nick.New(opts.nickPattern)
	if err != nil {
		return err
	}

	crawlOpts := []index.Option{
		index.WithExtractor(ex),
		index.WithWorkers(opts.workers),
	}
	if opts.verbose {
		crawlOpts = append(crawlOpts, index.WithVisitFunc(output.New(cmd.ErrOrStderr()).Path))
	}

	slog.Info("build_started",
		slog.String("logdir", logDir),
		slog.Int("workers", opts.workers),
		slog.String("nick_pattern", ex.Pattern()))

	idx, stats, err := index.NewCrawler(crawlOpts...).CrawlWithStats(ctx, logDir)
	if err != nil {
		return err
	}

	if err := emitIndex(ctx, cmd, idx, opts.outfile, format, opts.pretty, opts.noWait); err != nil {
		return err
	}

	slog.Info("build_complete",
		slog.String("logdir", logDir),
		slog.Int64("files", stats.Files),
		slog.Int64("dirs", stats.Dirs),
		slog.Int64("skipped", stats.Skipped),
		slog.Int("nicknames", len(idx)))
	return nil
}

// emitIndex writes idx to outfile, or to the command's stdout when outfile is
// empty or "-". Stdout JSON is always indented with sorted keys; pretty only
// affects files.
func emitIndex(ctx context.Context, cmd *cobra.Command, idx index.Index, outfile string, format store.Format, pretty, noWait bool) error {
	if outfile != "" && outfile != "-" {
		return store.Write(ctx, store.Target{
			Path:   outfile,
			Format: format,
			Pretty: pretty,
			NoWait: noWait,
		}, idx)
	}

	if format == store.FormatSQLite {
		return store.Write(ctx, store.Target{Path: outfile, Format: format}, idx)
	}
	stdout := cmd.OutOrStdout()
	return index.Encode(stdout, idx, index.EncodeOptions{Pretty: true})
}
