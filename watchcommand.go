package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/juanbsosa/chipichipi/internal/scanner"
)

func newWatchCommand(a *app) *cobra.Command {
	var skipInitial bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the configured folders and rescan on changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if !skipInitial {
				totals, err := a.scanner.ScanAll(ctx)
				if err != nil && !errors.Is(err, scanner.ErrScanInProgress) {
					return err
				}
				slog.Info(
					"initial scan complete",
					"seen", totals.FilesSeen,
					"indexed", totals.Indexed,
					"skipped", totals.Skipped,
				)
			}

			if err := a.scanner.StartWatching(ctx); err != nil {
				return err
			}
			defer a.scanner.StopWatching()

			fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes. Press Ctrl+C to stop.")
			<-ctx.Done()

			return nil
		},
	}

	cmd.Flags().BoolVar(&skipInitial, "no-initial-scan", false, "do not run a full scan before watching")

	return cmd
}
