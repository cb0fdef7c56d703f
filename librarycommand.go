package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/juanbsosa/chipichipi/internal/library"
)

func newListCommand(a *app) *cobra.Command {
	var sortBy string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the songs in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			songs, err := a.browse.ListSongs(cmd.Context(), sortBy, limit)
			if err != nil {
				return err
			}

			if len(songs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Library is empty. Run `chipichipi scan` first.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TITLE\tARTIST\tALBUM\tTRACK\tLENGTH")
			for _, song := range songs {
				fmt.Fprintf(
					w,
					"%s\t%s\t%s\t%s\t%s\n",
					song.Title,
					song.Artist,
					song.Album,
					formatTrackNumber(song.TrackNumber),
					library.FormatDuration(song.Duration),
				)
			}

			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", library.SortByTitle, "sort order: title, artist or album")
	cmd.Flags().IntVar(&limit, "limit", 500, "maximum number of songs to print")

	return cmd
}

func newStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show library statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.browse.GetStats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Songs:          %d\n", stats.SongCount)
			fmt.Fprintf(out, "Artists:        %d\n", stats.ArtistCount)
			fmt.Fprintf(out, "Albums:         %d\n", stats.AlbumCount)
			fmt.Fprintf(out, "Total playtime: %s\n", formatPlaytime(stats.TotalDuration))

			return nil
		},
	}
}

func formatTrackNumber(number *int) string {
	if number == nil {
		return ""
	}

	return fmt.Sprintf("%d", *number)
}

func formatPlaytime(seconds int) string {
	if seconds <= 0 {
		return "0m"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours == 0 {
		return fmt.Sprintf("%dm", minutes)
	}

	return fmt.Sprintf("%dh %dm", hours, minutes)
}
