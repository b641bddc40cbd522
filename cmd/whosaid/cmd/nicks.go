package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/whosaid/internal/store"
)

func newNicksCmd(_ *app) *cobra.Command {
	var (
		infile string
		format string
		counts bool
	)

	cmd := &cobra.Command{
		Use:   "nicks [flags]",
		Short: "List the nicknames in an index",
		Long: `List every nickname in the index, sorted, one per line. With --counts each
line also carries the number of files the nickname speaks in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := store.ParseFormat(format)
			if err != nil {
				return err
			}
			src, err := store.OpenSource(infile, f, cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer func() { _ = src.Close() }()

			list, err := src.Nicknames(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, nc := range list {
				if counts {
					_, err = fmt.Fprintf(out, "%s\t%d\n", nc.Nickname, nc.Files)
				} else {
					_, err = fmt.Fprintln(out, nc.Nickname)
				}
				if err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&infile, "infile", "i", "", "Read the index from this file (default: stdin)")
	cmd.Flags().StringVar(&format, "format", "", "Index format: json or sqlite (default: from infile extension)")
	cmd.Flags().BoolVar(&counts, "counts", false, "Show how many files each nickname speaks in")

	return cmd
}
