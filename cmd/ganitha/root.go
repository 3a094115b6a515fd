package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/p-n-ai/ganitha/internal/app"
	"github.com/p-n-ai/ganitha/internal/platform/config"
)

// cfg is loaded once per invocation before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:           "ganitha",
	Short:         "Sinhala O/L mathematics question generator",
	Long:          "Ganitha generates Sinhala-medium O/L mathematics questions and model papers from a reference corpus of past papers.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		applyFlags(cmd, cfg)
		slog.SetDefault(app.NewLogger(cmd.ErrOrStderr(), cfg.Log))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("corpus", "", "Path to the reference corpus JSON (overrides GANITHA_CORPUS_PATH)")
	rootCmd.PersistentFlags().String("topics-dir", "", "Directory of topic YAML files (overrides GANITHA_TOPICS_DIR)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(paperCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(corpusCmd)
	rootCmd.AddCommand(topicsCmd)
}

// applyFlags lets persistent flags override the environment.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	if p, _ := cmd.Flags().GetString("corpus"); p != "" {
		c.Corpus.Path = p
	}
	if d, _ := cmd.Flags().GetString("topics-dir"); d != "" {
		c.Corpus.TopicsDir = d
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		c.Log.Level = l
	}
	// Terminal output reads better as text.
	if os.Getenv("GANITHA_LOG_FORMAT") == "" {
		c.Log.Format = "text"
	}
}
