package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/layout"
	"tally/internal/ledger"
)

func newWarningsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warnings <participant> <interview-type>",
		Short: "Show the process warnings ledger for one unit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tree := layout.NewTree(cfg.Paths.DataRoot, cfg.Study.Name)
			rows, err := ledger.LoadWarnings(tree.WarningsPath(args[0], args[1]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No warnings recorded")
				return nil
			}

			headers := []string{"Day", "Session", "Warning", "Detected"}
			records := make([][]string, 0, len(rows))
			for _, row := range rows {
				records = append(records, []string{
					optIntCell(row.Day, "?"),
					optIntCell(row.Session, "?"),
					row.WarningText,
					row.WarningDate,
				})
			}
			aligns := []columnAlignment{alignRight, alignRight, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable(headers, records, aligns))
			return nil
		},
	}
	return cmd
}
