package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/layout"
	"tally/internal/ledger"
)

func newSOPCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sop <participant> <interview-type>",
		Short: "Show the raw interview SOP violations ledger for one unit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tree := layout.NewTree(cfg.Paths.DataRoot, cfg.Study.Name)
			rows, err := ledger.LoadSOP(tree.SOPPath(args[0], args[1]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No SOP violations recorded")
				return nil
			}

			headers := []string{"Raw Name", "Kind", "Valid Name", "Audio", "Video", "Files", "Detected"}
			records := make([][]string, 0, len(rows))
			for _, row := range rows {
				kind := "file"
				if row.IsFolder {
					kind = "folder"
				}
				records = append(records, []string{
					row.RawName,
					kind,
					optBoolCell(row.ValidName),
					optIntCell(row.AudioCount, "-"),
					optIntCell(row.VideoCount, "-"),
					optIntCell(row.TotalFiles, "-"),
					row.DateDetected,
				})
			}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(headers, records, aligns))
			return nil
		},
	}
	return cmd
}
