package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/ganitha/internal/corpus"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect the reference corpus",
}

var corpusStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show question counts by type and topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateOffline(); err != nil {
			return err
		}
		c := corpus.New()
		if !c.Load(cfg.Corpus.Path) {
			return fmt.Errorf("reference corpus could not be loaded from %s", cfg.Corpus.Path)
		}
		st := c.Stats()

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Source:    %s\n", st.Source)
		fmt.Fprintf(w, "Questions: %d\n", st.TotalQuestions)
		fmt.Fprintf(w, "Topics:    %d\n\n", len(st.Topics))

		fmt.Fprintf(w, "%-16s  %s\n", "Type", "Count")
		fmt.Fprintln(w, strings.Repeat("─", 24))
		for _, t := range sortedKeys(st.ByType) {
			fmt.Fprintf(w, "%-16s  %d\n", t, st.ByType[t])
		}

		fmt.Fprintf(w, "\n%-40s  %s\n", "Topic", "Count")
		fmt.Fprintln(w, strings.Repeat("─", 48))
		for _, t := range sortedKeys(st.ByTopic) {
			fmt.Fprintf(w, "%-40s  %d\n", t, st.ByTopic[t])
		}
		return nil
	},
}

func init() {
	corpusCmd.AddCommand(corpusStatsCmd)
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
