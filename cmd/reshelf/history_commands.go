package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"reshelf/internal/api"
	"reshelf/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		limit       int
		statusFlags []string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled organize operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseStatuses(statusFlags)
			if err != nil {
				return err
			}

			var entries []api.HistoryEntry
			err = ctx.withHistory(cmd.Context(), func(client *api.Client, store *history.Store) error {
				if client != nil {
					resp, err := client.History(cmd.Context(), limit, statusFlags)
					if err != nil {
						return err
					}
					entries = resp.Entries
					return nil
				}
				records, err := store.List(cmd.Context(), limit, parsed...)
				if err != nil {
					return err
				}
				entries = api.FromHistoryEntries(records)
				return nil
			})
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(stdout, "History is empty")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				title := entry.Title
				if title == "" {
					title = filepath.Base(entry.Source)
				}
				rows = append(rows, []string{
					strconv.FormatInt(entry.ID, 10),
					title,
					entry.Media,
					formatStatusLabel(entry.Status),
					entry.Mode,
					entry.Destination,
					formatDisplayTime(entry.CreatedAt),
				})
			}
			table := renderTable(
				[]string{"ID", "Title", "Media", "Status", "Mode", "Destination", "Created"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprint(stdout, table)
			fmt.Fprintln(stdout)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of entries to show")
	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (success, failed, source_missing, metadata_not_found, transfer_failed)")

	cmd.AddCommand(newHistoryClearCommand(ctx))
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all journal entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d history entries\n", removed)
			return nil
		},
	}
}
