package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/whosaid/internal/config"
	werrors "github.com/Aman-CERP/whosaid/internal/errors"
	"github.com/Aman-CERP/whosaid/internal/grep"
	"github.com/Aman-CERP/whosaid/internal/output"
	"github.com/Aman-CERP/whosaid/internal/store"
)

// queryOptions holds CLI flags for query.
type queryOptions struct {
	verbose      bool
	infile       string
	logDir       string
	format       string
	withFilename bool
	lineNumbers  bool
	color        string
}

func newQueryCmd(a *app) *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:     "query [flags] PATTERN WHO...",
		Aliases: []string{"grep"},
		Short:   "Print lines matching PATTERN from the files where WHO spoke",
		Long: `Look up every WHO in the index, take the union of their files, and print
each line of those files that PATTERN matches anywhere. Files are read in
sorted order, lines in file order.

Every WHO must be in the index; an unknown nickname is an error and nothing
is printed.

Examples:
  whosaid query -i nicks.json 'release' alice
  whosaid build ~/irclogs | whosaid query -H -n '(?i)merge' alice bob`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("color") && a.cfg != nil {
				opts.color = a.cfg.Query.Color
			}
			return runQuery(cmd.Context(), cmd, args[0], args[1:], opts)
		},
	}

	cwd, _ := os.Getwd()
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print each searched file on stderr")
	cmd.Flags().StringVarP(&opts.infile, "infile", "i", "", "Read the index from this file (default: stdin)")
	cmd.Flags().StringVarP(&opts.logDir, "logdir", "l", cwd, "Log directory the index was built from")
	cmd.Flags().StringVar(&opts.format, "format", "", "Index format: json or sqlite (default: from infile extension)")
	cmd.Flags().BoolVarP(&opts.withFilename, "with-filename", "H", false, "Prefix each line with its file path")
	cmd.Flags().BoolVarP(&opts.lineNumbers, "line-number", "n", false, "Prefix each line with its line number")
	cmd.Flags().StringVar(&opts.color, "color", config.ColorAuto, "Highlight matches: auto, always, never")

	return cmd
}

func runQuery(ctx context.Context, cmd *cobra.Command, pattern string, nicks []string, opts queryOptions) error {
	switch strings.ToLower(opts.color) {
	case config.ColorAuto, config.ColorAlways, config.ColorNever:
	default:
		return werrors.ValidationError(fmt.Sprintf("--color must be auto, always, or never, got %q", opts.color), nil)
	}

	filter, err := grep.Compile(pattern)
	if err != nil {
		return err
	}
	format, err := store.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	src, err := store.OpenSource(opts.infile, format, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	files, err := src.Resolve(ctx, nicks)
	if err != nil {
		return err
	}
	paths := files.Sorted()

	slog.Info("query_started",
		slog.String("pattern", filter.Pattern()),
		slog.Any("nicks", nicks),
		slog.String("logdir", opts.logDir),
		slog.Int("files", len(paths)))

	if opts.verbose {
		out := output.New(cmd.ErrOrStderr())
		for _, p := range paths {
			out.Path(p)
		}
	}

	stdout := cmd.OutOrStdout()
	printOpts := grep.PrintOptions{
		WithFilename: opts.withFilename,
		LineNumbers:  opts.lineNumbers,
	}
	if output.UseColor(opts.color, stdout) {
		printOpts.Highlighter = grep.NewHighlighter(filter, stdout)
	}

	n, err := grep.NewPrinter(stdout, printOpts).PrintAll(filter.Matches(ctx, paths))
	slog.Info("query_complete", slog.Int("lines", n))
	return err
}
