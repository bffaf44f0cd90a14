package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reshelf/internal/api"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		limit  int
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			client := ctx.apiClient()

			resp, err := client.Logs(cmd.Context(), limit)
			if err != nil {
				return ctx.friendlyAPIError(err)
			}
			for _, event := range resp.Events {
				fmt.Fprintln(stdout, formatLogEvent(event))
			}
			if len(resp.Events) == 0 && !follow {
				fmt.Fprintln(stdout, "No log entries available")
			}
			if !follow {
				return nil
			}

			cursor := resp.Next
			for {
				resp, err := client.LogsSince(cmd.Context(), cursor, 200, true)
				if err != nil {
					if cmd.Context().Err() != nil {
						return nil
					}
					return ctx.friendlyAPIError(err)
				}
				for _, event := range resp.Events {
					fmt.Fprintln(stdout, formatLogEvent(event))
				}
				cursor = resp.Next
			}
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Number of recent entries to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Stream new entries as they arrive")
	return cmd
}

func formatLogEvent(event api.LogEvent) string {
	timestamp := event.Timestamp
	if parsed, err := time.Parse(time.RFC3339, event.Timestamp); err == nil {
		timestamp = parsed.Local().Format("2006-01-02 15:04:05")
	}
	level := strings.ToUpper(strings.TrimSpace(event.Level))
	if level == "" {
		level = "INFO"
	}

	parts := []string{timestamp, level}
	if event.Component != "" {
		parts = append(parts, "["+event.Component+"]")
	}
	line := strings.Join(parts, " ") + " " + event.Message
	if event.SourcePath != "" {
		line += " source=" + event.SourcePath
	}
	if event.OperationID != "" {
		line += " operation=" + event.OperationID
	}
	if len(event.Fields) > 0 {
		keys := make([]string, 0, len(event.Fields))
		for key := range event.Fields {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			line += " " + key + "=" + event.Fields[key]
		}
	}
	return line
}
