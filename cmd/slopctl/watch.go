package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/cognicore/slopwatch/pkg/slopwatch"
)

func newWatchCmd(a *app) *cobra.Command {
	var schedule string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Observe generated messages from stdin, one per line",
		Long: "Reads generated messages from stdin, one per line, and prints each phrase " +
			"promoted to the candidate set. The snapshot is flushed on the cron schedule and at EOF.",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			if _, err := engine.Load(ctx); err != nil {
				return fmt.Errorf("load snapshot: %w", err)
			}

			unsubscribe := engine.Subscribe(func(ev slopwatch.Event) {
				switch ev.Kind {
				case slopwatch.CandidatePromoted:
					fmt.Fprintf(a.stdout, "candidate: %s\n", ev.Phrase)
				case slopwatch.Pruned:
					a.logger.Debug().Int("records", ev.Count).Msg("pruned")
				}
			})
			defer unsubscribe()

			flush := func() {
				if err := engine.Save(ctx); err != nil {
					a.logger.Error().Err(err).Msg("flush snapshot")
					return
				}
				a.logger.Debug().Int("messages", engine.Stats().Messages).Msg("snapshot flushed")
			}

			c := cron.New()
			if _, err := c.AddFunc(schedule, flush); err != nil {
				return fmt.Errorf("invalid --flush schedule %q: %w", schedule, err)
			}
			c.Start()

			scanner := bufio.NewScanner(a.stdin)
			scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				engine.Observe(line)
			}

			// wait for a running flush before the final one
			<-c.Stop().Done()
			flush()

			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			stats := engine.Stats()
			fmt.Fprintf(a.stdout, "Observed %d messages, %d candidates\n", stats.Messages, stats.Candidates)
			return nil
		},
	}
	cmd.Flags().StringVar(&schedule, "flush", "@every 30s", "Cron schedule for snapshot flushes")
	return cmd
}
