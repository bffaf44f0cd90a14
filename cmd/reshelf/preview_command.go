package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"reshelf/internal/logging"
	"reshelf/internal/organize"
)

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	var dest string
	var media string

	cmd := &cobra.Command{
		Use:   "preview <path>",
		Short: "Show where files would land without moving anything",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			org, err := organize.New(cfg, nil, logging.NewNop())
			if err != nil {
				return err
			}
			paths, err := collectMediaFiles(args[0], cfg.Watch.Extensions)
			if err != nil {
				return err
			}
			return renderPlanTable(cmd.Context(), cmd.OutOrStdout(), org, paths, dest, media, "")
		},
	}

	cmd.Flags().StringVarP(&dest, "dest", "d", "", "Destination base directory (defaults to library.default_dir)")
	cmd.Flags().StringVarP(&media, "media", "m", "", "Force media type (movie or tv)")
	return cmd
}

func renderPlanTable(ctx context.Context, out io.Writer, org *organize.Organizer, paths []string, dest, media, mode string) error {
	rows := make([][]string, 0, len(paths))
	for _, path := range paths {
		res, err := org.Plan(ctx, organize.Request{Source: path, DestBase: dest, Media: media, Mode: mode})
		if err != nil {
			rows = append(rows, []string{filepath.Base(path), "", "", fmt.Sprintf("error: %v", err)})
			continue
		}
		rows = append(rows, []string{filepath.Base(path), res.DisplayTitle(), string(res.Match.Media), res.Destination})
	}
	table := renderTable(
		[]string{"File", "Title", "Media", "Destination"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
	)
	fmt.Fprint(out, table)
	fmt.Fprintln(out)
	return nil
}
