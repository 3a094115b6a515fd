package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/ganitha/internal/question"
	"github.com/p-n-ai/ganitha/internal/topics"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List configured lesson topics",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateOffline(); err != nil {
			return err
		}
		store, err := topics.NewDefaultStore(cfg.Corpus.TopicsDir)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-32s  %-8s  %-8s  %-8s\n", "Topic", "Easy", "Medium", "Hard")
		fmt.Fprintln(w, strings.Repeat("─", 62))
		for _, name := range store.Topics() {
			tc, _ := store.Get(name)
			fmt.Fprintf(w, "%-32s  %-8s  %-8s  %-8s\n", name,
				steps(tc.Difficulty.Easy), steps(tc.Difficulty.Medium), steps(tc.Difficulty.Hard))
		}
		fmt.Fprintf(w, "\n%d topics (steps per difficulty; default difficulty is %s)\n", store.Len(), question.Medium)
		return nil
	},
}

func steps(p *topics.Params) string {
	if p == nil {
		return "-"
	}
	return p.Steps.String()
}
