package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"tally/internal/journal"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent pipeline runs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run journal: %w", err)
			}
			defer func() { _ = store.Close() }()

			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}

			headers := []string{"Started", "Participant", "Type", "Status", "Warnings", "Error"}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.CreatedAt.Local().Format(time.DateTime),
					run.Participant,
					run.InterviewType,
					statusCell(run.Status, shouldColorize(out)),
					strconv.Itoa(run.WarningCount),
					run.ErrorMessage,
				})
			}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func statusCell(status journal.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	switch status {
	case journal.StatusCompleted:
		return ansiGreen + string(status) + ansiReset
	case journal.StatusFailed:
		return ansiRed + string(status) + ansiReset
	default:
		return ansiYellow + string(status) + ansiReset
	}
}
