package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/juanbsosa/chipichipi/internal/library"
)

func newRootsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roots",
		Short: "Manage the folders the scanner watches",
	}

	cmd.AddCommand(
		newRootsListCommand(a),
		newRootsAddCommand(a),
		newRootsRemoveCommand(a),
		newRootsEnableCommand(a, true),
		newRootsEnableCommand(a, false),
	)

	return cmd
}

func newRootsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List watched folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := a.roots.List(cmd.Context())
			if err != nil {
				return err
			}

			if len(roots) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No watched folders. Add one with `chipichipi roots add <path>`.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPATH\tENABLED")
			for _, root := range roots {
				fmt.Fprintf(w, "%d\t%s\t%t\n", root.ID, root.Path, root.Enabled)
			}

			return w.Flush()
		},
	}
}

func newRootsAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <path>",
		Short: "Add a folder to scan for audio files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.roots.Add(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Added watched folder %d: %s\n", root.ID, root.Path)
			return nil
		},
	}
}

func newRootsRemoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a watched folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRootID(args[0])
			if err != nil {
				return err
			}

			if err := a.roots.Delete(cmd.Context(), id); err != nil {
				return describeRootError(err, id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed watched folder %d\n", id)
			return nil
		},
	}
}

func newRootsEnableCommand(a *app, enable bool) *cobra.Command {
	verb := "enable"
	if !enable {
		verb = "disable"
	}

	return &cobra.Command{
		Use:   verb + " <id>",
		Short: verb + " a watched folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseRootID(args[0])
			if err != nil {
				return err
			}

			if err := a.roots.SetEnabled(cmd.Context(), id, enable); err != nil {
				return describeRootError(err, id)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watched folder %d %sd\n", id, verb)
			return nil
		},
	}
}

func parseRootID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid watched folder id %q", arg)
	}

	return id, nil
}

func describeRootError(err error, id int64) error {
	if errors.Is(err, library.ErrWatchedRootNotFound) {
		return fmt.Errorf("watched folder %d does not exist", id)
	}

	return err
}
