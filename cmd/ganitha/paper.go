package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/ganitha/internal/app"
	"github.com/p-n-ai/ganitha/internal/export"
	"github.com/p-n-ai/ganitha/internal/generator"
	"github.com/p-n-ai/ganitha/internal/question"
)

var paperCmd = &cobra.Command{
	Use:   "paper",
	Short: "Generate a full model paper",
	Long: "Generate the short-answer, structured and essay sections of a model paper in turn. " +
		"A section that fails is left empty; the command fails only when every section does.",
	RunE: func(cmd *cobra.Command, args []string) error {
		short, _ := cmd.Flags().GetInt("short")
		structured, _ := cmd.Flags().GetInt("structured")
		essay, _ := cmd.Flags().GetInt("essay")
		delay, _ := cmd.Flags().GetDuration("delay")
		out, _ := cmd.Flags().GetString("out")

		if short < 1 || short > 25 {
			return fmt.Errorf("--short must be between 1 and 25")
		}
		if structured < 1 || structured > 10 {
			return fmt.Errorf("--structured must be between 1 and 10")
		}
		if essay < 1 || essay > 10 {
			return fmt.Errorf("--essay must be between 1 and 10")
		}

		if err := cfg.Validate(); err != nil {
			return err
		}
		if delay == 0 {
			delay = cfg.Generation.Delay
		}
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		paper, err := a.Engine.Paper(cmd.Context(), generator.PaperRequest{
			ShortAnswer: short,
			Structured:  structured,
			Essay:       essay,
			Delay:       delay,
			OnProgress:  logProgress,
		})
		if err != nil {
			return err
		}
		if err := a.Archive.Save(cmd.Context(), paper); err != nil {
			slog.Warn("failed to archive paper", "paper_id", paper.ID, "error", err)
		}
		logSummary(paper)

		return writeResult(cmd, out, paper, func(w io.Writer) error {
			return export.WritePaper(w, paper)
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <paper-id>",
	Short: "Export an archived paper",
	Long:  "Export a paper kept by the postgres or redis archive. Use \"latest\" for the most recent one.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		if err := cfg.ValidateOffline(); err != nil {
			return err
		}
		a, err := app.New(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		var paper question.Paper
		if args[0] == "latest" {
			paper, err = a.Archive.Latest(cmd.Context())
		} else {
			paper, err = a.Archive.Get(cmd.Context(), args[0])
		}
		if err != nil {
			return fmt.Errorf("paper %s: %w", args[0], err)
		}

		return writeResult(cmd, out, paper, func(w io.Writer) error {
			return export.WritePaper(w, paper)
		})
	},
}

func init() {
	paperCmd.Flags().Int("short", generator.DefaultShortAnswerCount, "Short-answer questions (1-25)")
	paperCmd.Flags().Int("structured", generator.DefaultStructuredCount, "Structured questions (1-10)")
	paperCmd.Flags().Int("essay", generator.DefaultEssayCount, "Essay questions (1-10)")
	paperCmd.Flags().Duration("delay", 0, "Pause between structured and essay batches, 2s to 10s (default GANITHA_GENERATION_DELAY)")
	paperCmd.Flags().String("out", "", "Write to a .json or .xlsx file instead of stdout")

	exportCmd.Flags().String("out", "", "Write to a .json or .xlsx file instead of stdout")
}

func logSummary(p question.Paper) {
	for _, t := range []question.Type{question.TypeShortAnswer, question.TypeStructured, question.TypeEssay} {
		s := p.Summary[t]
		if s.Error != "" {
			slog.Warn("section failed", "type", t, "requested", s.Requested, "error", s.Error)
			continue
		}
		slog.Info("section done", "type", t, "generated", s.Generated, "requested", s.Requested)
	}
	slog.Info("paper complete", "paper_id", p.ID, "questions", p.Total(), "api_calls", p.APICalls)
}
