package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cognicore/slopwatch/pkg/slopwatch/merge"
)

func newLeaderboardCmd(a *app) *cobra.Command {
	var (
		asJSON bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show merged patterns and remaining phrases for a conversation",
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

			found, err := engine.Load(ctx)
			if err != nil {
				return fmt.Errorf("load snapshot: %w", err)
			}
			if !found {
				return fmt.Errorf("no snapshot for conversation %q; run analyze first", a.conversation)
			}

			board := engine.Leaderboard()
			if asJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(board)
			}
			printLeaderboard(a.stdout, board, limit)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the leaderboard as JSON")
	cmd.Flags().IntVarP(&limit, "limit", "n", 25, "Entries to print per section (0 for all)")
	return cmd
}

func printLeaderboard(w io.Writer, board merge.Leaderboard, limit int) {
	clip := func(n int) int {
		if limit > 0 && n > limit {
			return limit
		}
		return n
	}

	fmt.Fprintf(w, "Merged patterns (%d)\n", len(board.Merged))
	for _, p := range board.Merged[:clip(len(board.Merged))] {
		fmt.Fprintf(w, "  %8.2f  %s  [%d phrases]\n", p.Score, p.Text, len(p.Members))
	}
	fmt.Fprintf(w, "\nPhrases (%d)\n", len(board.Remaining))
	for _, p := range board.Remaining[:clip(len(board.Remaining))] {
		fmt.Fprintf(w, "  %8.2f  %s\n", p.Score, p.Text)
		if p.Context != "" {
			fmt.Fprintf(w, "            %s\n", strings.TrimSpace(p.Context))
		}
	}
}
