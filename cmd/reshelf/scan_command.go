package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Ask the daemon to organize every watched directory now",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := ctx.apiClient().Scan(cmd.Context())
			if err != nil {
				return ctx.friendlyAPIError(err)
			}
			out := cmd.OutOrStdout()
			if len(resp.Directories) == 0 {
				fmt.Fprintln(out, "No enabled watch directories configured")
				return nil
			}
			rows := make([][]string, 0, len(resp.Directories))
			for _, dir := range resp.Directories {
				rows = append(rows, []string{
					dir.Name,
					dir.Source,
					strconv.Itoa(dir.Total),
					strconv.Itoa(dir.Succeeded),
					strconv.Itoa(dir.Failed),
				})
			}
			table := renderTable(
				[]string{"Name", "Source", "Files", "Organized", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
			)
			fmt.Fprint(out, table)
			fmt.Fprintf(out, "\nOrganized %d of %d files (%d failed)\n", resp.Succeeded, resp.Total, resp.Failed)
			return nil
		},
	}
}
