package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cognicore/slopwatch/pkg/slopwatch/rules"
	"github.com/cognicore/slopwatch/pkg/slopwatch/synth"
)

func newSynthesizeCmd(a *app) *cobra.Command {
	var (
		method      string
		noPreScreen bool
		out         string
	)
	cmd := &cobra.Command{
		Use:   "synthesize",
		Short: "Generate replacement rules from the conversation leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if method != "" {
				if _, err := synth.ParseMethod(method); err != nil {
					return err
				}
				cfg.Synthesis.Method = method
			}
			if noPreScreen {
				cfg.Synthesis.PreScreen = false
			}

			engine, cleanup, err := a.buildEngine(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer cleanup()

			found, err := engine.Load(ctx)
			if err != nil {
				return fmt.Errorf("load snapshot: %w", err)
			}
			if !found {
				return fmt.Errorf("no snapshot for conversation %q; run analyze first", a.conversation)
			}

			res, err := engine.Synthesize(ctx)
			if err != nil {
				return fmt.Errorf("synthesize: %w", err)
			}
			if err := engine.Save(ctx); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}

			fmt.Fprintf(a.stdout, "Run %s: %d candidates, %d accepted, %d rejected\n",
				res.RunID, len(res.Batch), len(res.Accepted), len(res.Rejected))
			for _, r := range res.Accepted {
				fmt.Fprintf(a.stdout, "  + %s  %s (%d alternatives)\n", r.Name, r.FindPattern, len(r.Alternatives))
			}
			for _, rej := range res.Rejected {
				fmt.Fprintf(a.stdout, "  - %s  %s\n", rej.Name, rej.Reason)
			}

			if out != "" {
				if err := engine.ExportRules(ctx, rules.FileWriter{Path: out}); err != nil {
					return fmt.Errorf("export rules: %w", err)
				}
				fmt.Fprintf(a.stdout, "Wrote %d rules to %s\n", len(engine.AcceptedRules()), out)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "method", "m", "", "Synthesis method: single or iterative (default from config)")
	cmd.Flags().BoolVar(&noPreScreen, "no-prescreen", false, "Skip the pre-screen pass")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write all accepted rules to this YAML file")
	return cmd
}
