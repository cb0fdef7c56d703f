package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/juanbsosa/chipichipi/internal/scanner"
)

func newScanCommand(a *app) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan watched folders, or a single directory, for audio files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !quiet {
				a.scanner.SetReporter(func(progress scanner.Progress) {
					fmt.Fprintf(cmd.OutOrStdout(), "[%3d%%] %s\n", progress.Percent, progress.Message)
				})
			}

			var totals scanner.Totals
			var err error
			if len(args) == 1 {
				totals, err = a.scanner.ScanDirectory(cmd.Context(), args[0])
			} else {
				totals, err = a.scanner.ScanAll(cmd.Context())
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(
				cmd.OutOrStdout(),
				"%d files seen, %d indexed, %d skipped\n",
				totals.FilesSeen,
				totals.Indexed,
				totals.Skipped,
			)

			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress progress output")

	return cmd
}
