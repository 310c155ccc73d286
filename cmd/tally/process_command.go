package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tally/internal/journal"
	"tally/internal/logging"
	"tally/internal/workflow"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var participant string
	var interviewType string

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the accounting pipeline over the data root",
		Long: `Run the full pipeline: SOP checks, per-modality accounting,
cross-modality reconciliation, QC combination, warning detection, and the
shared report fragments. Without flags every participant and interview type
is processed; --participant and --type narrow the run to one unit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}
			store, err := journal.Open(cfg)
			if err != nil {
				return fmt.Errorf("open run journal: %w", err)
			}
			defer func() { _ = store.Close() }()

			pipeline := workflow.New(cfg, store, logger)
			out := cmd.OutOrStdout()

			if participant != "" {
				types := cfg.Study.InterviewTypes
				if interviewType != "" {
					types = []string{interviewType}
				}
				warnings := 0
				for _, it := range types {
					result, err := pipeline.RunUnit(cmd.Context(), participant, it)
					if err != nil {
						return err
					}
					warnings += result.Warnings
				}
				fmt.Fprintf(out, "Processed %s (%d warnings)\n", participant, warnings)
				return nil
			}
			if interviewType != "" {
				return fmt.Errorf("--type requires --participant")
			}

			summary, err := pipeline.Run(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Processed %d units, %d failed, %d warnings emitted\n",
				summary.UnitsProcessed, summary.UnitsFailed, summary.WarningsEmitted)
			if summary.UnitsFailed > 0 {
				return fmt.Errorf("%d units failed; see the run journal", summary.UnitsFailed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&participant, "participant", "p", "", "Limit the run to one participant")
	cmd.Flags().StringVarP(&interviewType, "type", "t", "", "Limit the run to one interview type (requires --participant)")
	return cmd
}
