package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"videoencode/internal/config"
	"videoencode/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past encodes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return fmt.Errorf("history is disabled in the configuration")
			}

			historyPath, err := config.ExpandPath(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("resolve history path: %w", err)
			}
			store, err := history.Open(historyPath)
			if err != nil {
				return fmt.Errorf("open history database: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No encodes recorded yet.")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, record := range records {
				dv := ""
				if record.DolbyVision {
					dv = "DV"
				}
				rows = append(rows, []string{
					record.CreatedAt.Local().Format("2006-01-02 15:04"),
					record.Title,
					strconv.Itoa(record.Quality),
					fmt.Sprintf("%.0f", record.TargetKbps),
					fmt.Sprintf("%.0f", record.PredictedKbps),
					dv,
				})
			}
			fmt.Fprintln(out, renderTable(out,
				[]string{"When", "Title", "Quality", "Target", "Predicted", "HDR"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show (0 for all)")
	return cmd
}
