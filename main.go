package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/juanbsosa/chipichipi/internal/config"
	"github.com/juanbsosa/chipichipi/internal/db"
	"github.com/juanbsosa/chipichipi/internal/library"
	"github.com/juanbsosa/chipichipi/internal/scanner"
)

type app struct {
	db      *sql.DB
	songs   *library.SongRepository
	roots   *library.WatchedRootRepository
	browse  *library.BrowseRepository
	scanner *scanner.Service
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	var verbose bool

	cmd := &cobra.Command{
		Use:           "chipichipi",
		Short:         "Scan, organize and browse a local music library",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; environment overrides like CHIPICHIPI_DB_PATH
			// may live there.
			_ = godotenv.Load()

			setupLogging(verbose)

			paths, err := config.ResolvePaths("chipichipi")
			if err != nil {
				return err
			}

			database, err := db.Bootstrap(paths.DBPath)
			if err != nil {
				return err
			}

			a.db = database
			a.songs = library.NewSongRepository(database)
			a.roots = library.NewWatchedRootRepository(database)
			a.browse = library.NewBrowseRepository(database)
			a.scanner = scanner.NewService(a.songs, a.roots, slog.Default())

			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.db != nil {
				a.db.Close()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newScanCommand(a),
		newListCommand(a),
		newStatsCommand(a),
		newRootsCommand(a),
		newWatchCommand(a),
	)

	return cmd
}

func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) {
		handler = tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
