package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"videoencode/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check that the required external tools are installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg.Tools))
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "ok"
				if !status.Available {
					state = "missing"
					if status.Detail != "" {
						state = status.Detail
					}
				}
				rows = append(rows, []string{status.Name, status.Command, state, status.Description})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"Tool", "Command", "Status", "Purpose"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}))

			if missing := deps.Missing(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required tools missing", len(missing))
			}
			return nil
		},
	}
}
