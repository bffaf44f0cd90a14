package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reshelf/internal/rules"
)

func newRulesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Show filename rules in match order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			ruleSet := rules.FromConfig(cfg)
			rows := make([][]string, 0, len(ruleSet))
			for _, rule := range ruleSet {
				rows = append(rows, []string{
					strconv.Itoa(rule.Priority),
					rule.Name,
					string(rule.Kind),
					rule.Pattern,
					yesNo(!rule.Disabled),
				})
			}
			table := renderTable(
				[]string{"Priority", "Name", "Kind", "Pattern", "Enabled"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			)
			stdout := cmd.OutOrStdout()
			fmt.Fprint(stdout, table)
			fmt.Fprintln(stdout)
			return nil
		},
	}
}
