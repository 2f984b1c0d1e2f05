package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cognicore/slopwatch/internal/transcript"
	"github.com/cognicore/slopwatch/pkg/slopwatch/bulk"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var input string
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Re-analyze a JSONL transcript and save the conversation snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if input == "" {
				return fmt.Errorf("--input required")
			}
			ctx := cmd.Context()
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			engine, cleanup, err := a.buildEngine(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer cleanup()

			msgs, err := transcript.LoadFromJSONL(input, a.logger)
			if err != nil {
				return fmt.Errorf("load transcript: %w", err)
			}
			generated := transcript.Generated(msgs)

			res, err := engine.Reanalyze(ctx, generated, func(p bulk.Progress) {
				a.logger.Debug().Int("processed", p.Processed).Int("total", p.Total).Msg("analyzing")
			})
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			if err := engine.Save(ctx); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}

			stats := engine.Stats()
			fmt.Fprintf(a.stdout, "Analyzed %d of %d messages in %s\n", res.Processed, len(msgs), res.Elapsed.Round(time.Millisecond))
			fmt.Fprintf(a.stdout, "Records: %d  Candidates: %d  Pruned: %d\n", stats.Records, stats.Candidates, res.Pruned)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "JSONL transcript (one {\"role\",\"text\"} object per line)")
	return cmd
}
