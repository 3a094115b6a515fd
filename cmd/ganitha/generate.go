package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/ganitha/internal/app"
	"github.com/p-n-ai/ganitha/internal/export"
	"github.com/p-n-ai/ganitha/internal/generator"
	"github.com/p-n-ai/ganitha/internal/question"
)

// countLimits holds the default and maximum count per question type.
var countLimits = map[question.Type]struct{ def, max int }{
	question.TypeShortAnswer: {5, 25},
	question.TypeStructured:  {3, 10},
	question.TypeEssay:       {2, 10},
	question.TypeLesson:      {5, 10},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate questions of one type",
	Example: `  ganitha generate --type short --count 10
  ganitha generate --type structured --topic "ත්‍රිකෝණමිතිය" --out structured.xlsx
  ganitha generate --type lesson --topic "පොළිය" --difficulty hard`,
	RunE: func(cmd *cobra.Command, args []string) error {
		typeName, _ := cmd.Flags().GetString("type")
		count, _ := cmd.Flags().GetInt("count")
		topicList, _ := cmd.Flags().GetStringSlice("topic")
		level, _ := cmd.Flags().GetString("difficulty")
		delay, _ := cmd.Flags().GetDuration("delay")
		out, _ := cmd.Flags().GetString("out")

		t, err := question.ParseType(typeName)
		if err != nil {
			return err
		}
		limits := countLimits[t]
		if count == 0 {
			count = limits.def
		}
		if count < 1 || count > limits.max {
			return fmt.Errorf("--count must be between 1 and %d for %s", limits.max, t)
		}
		difficulty, err := question.ParseDifficulty(level)
		if err != nil {
			return err
		}
		if t == question.TypeLesson && len(topicList) != 1 {
			return fmt.Errorf("lesson questions need exactly one --topic")
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

		ctx := cmd.Context()
		req := generator.Request{
			Topics:     topicList,
			Count:      count,
			Delay:      delay,
			OnProgress: logProgress,
		}
		switch t {
		case question.TypeShortAnswer:
			return runTyped(ctx, cmd, out, req, a.Engine.ShortAnswer, func(p *question.PaperQuestions, qs []question.ShortAnswer) {
				p.ShortAnswer = qs
			})
		case question.TypeStructured:
			return runTyped(ctx, cmd, out, req, a.Engine.Structured, func(p *question.PaperQuestions, qs []question.Structured) {
				p.Structured = qs
			})
		case question.TypeEssay:
			return runTyped(ctx, cmd, out, req, a.Engine.Essay, func(p *question.PaperQuestions, qs []question.Essay) {
				p.Essay = qs
			})
		default:
			batch, err := a.Engine.Lesson(ctx, generator.LessonRequest{
				Topic:      topicList[0],
				Difficulty: difficulty,
				Count:      count,
				OnProgress: logProgress,
			})
			if err != nil {
				return err
			}
			return writeResult(cmd, out, batch, func(w io.Writer) error {
				return export.WriteLessons(w, batch)
			})
		}
	},
}

func init() {
	generateCmd.Flags().String("type", "short", "Question type: short, structured, essay or lesson")
	generateCmd.Flags().Int("count", 0, "Number of questions (defaults per type)")
	generateCmd.Flags().StringSlice("topic", nil, "Topic to draw from (repeatable; lesson needs exactly one)")
	generateCmd.Flags().String("difficulty", "medium", "Lesson difficulty: easy, medium or hard")
	generateCmd.Flags().Duration("delay", 0, "Pause between structured and essay batches, 2s to 10s (default GANITHA_GENERATION_DELAY)")
	generateCmd.Flags().String("out", "", "Write to a .json or .xlsx file instead of stdout")
}

func runTyped[T any](
	ctx context.Context, cmd *cobra.Command, out string, req generator.Request,
	generate func(context.Context, generator.Request) (question.Batch[T], error),
	set func(*question.PaperQuestions, []T),
) error {
	batch, err := generate(ctx, req)
	if err != nil {
		return err
	}
	if !batch.Complete() {
		slog.Warn("fewer questions than requested", "generated", batch.Count, "requested", batch.Requested)
	}
	return writeResult(cmd, out, batch, func(w io.Writer) error {
		return export.WritePaper(w, batchPaper(batch, set))
	})
}

// batchPaper wraps a single-type batch so it can be exported like a paper.
func batchPaper[T any](b question.Batch[T], set func(*question.PaperQuestions, []T)) question.Paper {
	now := time.Now()
	p := question.Paper{
		ID:          question.PaperID(now),
		GeneratedAt: now,
		Summary: map[question.Type]question.SectionSummary{
			b.Type: {Requested: b.Requested, Generated: b.Count, Outcome: b.Outcome},
		},
		TopicsUsed:     b.TopicsUsed,
		APICalls:       b.APICalls,
		ElapsedSeconds: b.ElapsedSeconds,
	}
	set(&p.Questions, b.Questions)
	return p
}

func logProgress(p generator.Progress) {
	slog.Info("progress",
		"type", p.Type,
		"generated", p.Generated,
		"requested", p.Requested,
		"api_calls", p.APICalls,
	)
}
