package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"reshelf/internal/config"
	"reshelf/internal/history"
	"reshelf/internal/logging"
	"reshelf/internal/organize"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dest string
	var mode string
	var media string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "organize <path>",
		Short: "Organize a file or directory into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if mode != "" {
				if _, err := organize.ParseMode(mode); err != nil {
					return err
				}
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("inspect path %q: %w", args[0], err)
			}

			if dryRun {
				org, err := organize.New(cfg, nil, logging.NewNop())
				if err != nil {
					return err
				}
				paths, err := collectMediaFiles(path, cfg.Watch.Extensions)
				if err != nil {
					return err
				}
				return renderPlanTable(cmd.Context(), cmd.OutOrStdout(), org, paths, dest, media, mode)
			}

			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()
			org, err := organize.New(cfg, store, logging.NewNop())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if info.IsDir() {
				stats := org.ScanDirectory(cmd.Context(), organize.ScanRequest{
					Dir:      path,
					DestBase: dest,
					Media:    media,
					Mode:     mode,
				})
				fmt.Fprintf(out, "Scanned %d files: %d organized, %d failed\n", stats.Total, stats.Success, stats.Failed)
				if stats.Failed > 0 {
					fmt.Fprintln(out, "Failures are journaled; inspect them with `reshelf history --status failed`")
				}
				return nil
			}

			res, err := org.Organize(cmd.Context(), organize.Request{
				Source:   path,
				DestBase: dest,
				Media:    media,
				Mode:     mode,
			})
			if err != nil {
				return err
			}
			if res.Transferred {
				fmt.Fprintf(out, "Organized %s -> %s\n", filepath.Base(res.Source), res.Destination)
			} else {
				fmt.Fprintf(out, "Already in library: %s\n", res.Destination)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Destination base directory (defaults to library.default_dir)")
	cmd.Flags().StringVar(&mode, "mode", "", "Transfer mode (hardlink, copy, move, symlink)")
	cmd.Flags().StringVarP(&media, "media", "m", "", "Force media type (movie or tv)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan without touching the filesystem")
	return cmd
}
