package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"reshelf/internal/api"
	"reshelf/internal/config"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Manage watched drop directories",
	}

	cmd.AddCommand(newWatchListCommand(ctx))
	cmd.AddCommand(newWatchAddCommand(ctx))
	cmd.AddCommand(newWatchRemoveCommand(ctx))

	return cmd
}

func newWatchListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List watched directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dirs := api.FromWatchDirectories(cfg.Watch.Directories)
			if daemonReachable(cmd.Context(), ctx) {
				status, err := ctx.apiClient().Status(cmd.Context())
				if err != nil {
					return ctx.friendlyAPIError(err)
				}
				dirs = status.Directories
			}

			stdout := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(stdout, "No watch directories configured")
				return nil
			}
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				rows = append(rows, []string{dir.Name, dir.Source, dir.Destination, dir.Media, yesNo(dir.Enabled)})
			}
			table := renderTable(
				[]string{"Name", "Source", "Destination", "Media", "Enabled"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprint(stdout, table)
			fmt.Fprintln(stdout)
			return nil
		},
	}
}

func newWatchAddCommand(ctx *commandContext) *cobra.Command {
	var (
		name  string
		dest  string
		media string
	)

	cmd := &cobra.Command{
		Use:   "add <source>",
		Short: "Add a directory to watch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source := args[0]
			stdout := cmd.OutOrStdout()

			if daemonReachable(cmd.Context(), ctx) {
				_, err := ctx.apiClient().AddDirectory(cmd.Context(), api.DirectoryRequest{
					Name:        name,
					Source:      source,
					Destination: dest,
					Media:       media,
				})
				if err != nil {
					var apiErr *api.APIError
					if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
						return fmt.Errorf("%s is already being watched", source)
					}
					return ctx.friendlyAPIError(err)
				}
				fmt.Fprintf(stdout, "Now watching %s\n", source)
				return nil
			}

			if !cfg.AddWatchDirectory(config.WatchDirectory{
				Name:   name,
				Source: source,
				Dest:   dest,
				Media:  media,
			}) {
				return fmt.Errorf("%s is already being watched", source)
			}
			if err := cfg.Save(ctx.resolvedConfigPath()); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Now watching %s\n", source)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name for the directory")
	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Library root for files from this directory")
	cmd.Flags().StringVarP(&media, "media", "m", "", "Force media kind for this directory (movie or tv)")
	return cmd
}

func newWatchRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <source>",
		Short: "Stop watching a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			source := args[0]
			stdout := cmd.OutOrStdout()

			if daemonReachable(cmd.Context(), ctx) {
				if _, err := ctx.apiClient().RemoveDirectory(cmd.Context(), source); err != nil {
					var apiErr *api.APIError
					if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
						return fmt.Errorf("%s is not being watched", source)
					}
					return ctx.friendlyAPIError(err)
				}
				fmt.Fprintf(stdout, "Stopped watching %s\n", source)
				return nil
			}

			if !cfg.RemoveWatchDirectory(source) {
				return fmt.Errorf("%s is not being watched", source)
			}
			if err := cfg.Save(ctx.resolvedConfigPath()); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "Stopped watching %s\n", source)
			return nil
		},
	}
}

// daemonReachable probes the API once so watch mutations go through the
// daemon when it is up and edit the config file directly when it is not.
func daemonReachable(ctx context.Context, cmdCtx *commandContext) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := cmdCtx.apiClient().Health(probeCtx)
	return err == nil
}
