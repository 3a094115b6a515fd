package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/p-n-ai/ganitha/internal/question"
)

// Default section sizes of a full model paper.
const (
	DefaultShortAnswerCount = 25
	DefaultStructuredCount  = 5
	DefaultEssayCount       = 10
)

// PaperRequest asks for a full model paper.
type PaperRequest struct {
	JobID       string
	ShortAnswer int
	Structured  int
	Essay       int
	Delay       time.Duration
	// OnProgress receives paper-wide totals tagged with the current section.
	OnProgress ProgressFunc
}

// DefaultPaperRequest returns the standard paper shape.
func DefaultPaperRequest() PaperRequest {
	return PaperRequest{
		ShortAnswer: DefaultShortAnswerCount,
		Structured:  DefaultStructuredCount,
		Essay:       DefaultEssayCount,
		Delay:       DefaultDelay,
	}
}

// Total returns the number of questions requested across all sections.
func (r PaperRequest) Total() int {
	return r.ShortAnswer + r.Structured + r.Essay
}

// PaperError reports a paper in which every section failed.
type PaperError struct {
	Errs map[question.Type]error
}

func (e *PaperError) Error() string {
	return fmt.Sprintf("model paper: every section failed: %v", errors.Join(e.unwrapped()...))
}

func (e *PaperError) unwrapped() []error {
	var out []error
	for _, t := range []question.Type{question.TypeShortAnswer, question.TypeStructured, question.TypeEssay} {
		if err, ok := e.Errs[t]; ok {
			out = append(out, err)
		}
	}
	return out
}

// Unwrap exposes the section errors to errors.Is and errors.As.
func (e *PaperError) Unwrap() []error { return e.unwrapped() }

// Paper generates the short-answer, structured and essay sections in order.
// A section that fails outright is left empty; the paper fails only when no
// section produced anything.
func (e *Engine) Paper(ctx context.Context, req PaperRequest) (question.Paper, error) {
	start := e.now()
	paper := question.Paper{
		ID:          question.PaperID(start),
		GeneratedAt: start,
		Summary:     make(map[question.Type]question.SectionSummary),
	}
	if !e.corpus.Loaded() {
		return paper, ErrPrecondition
	}

	var (
		done     int
		apiCalls int
		topics   []string
		failures = make(map[question.Type]error)
	)
	total := req.Total()

	sectionProgress := func() ProgressFunc {
		if req.OnProgress == nil {
			return nil
		}
		offset, calls := done, apiCalls
		return func(p Progress) {
			p.Generated += offset
			p.Requested = total
			p.APICalls += calls
			req.OnProgress(p)
		}
	}

	record := func(t question.Type, requested, generated, calls int, outcome question.Outcome, used []string, err error) {
		s := question.SectionSummary{Requested: requested, Generated: generated, Outcome: outcome}
		if err != nil {
			s.Error = err.Error()
			failures[t] = err
			slog.Error("model paper section failed", "type", t, "error", err)
		}
		paper.Summary[t] = s
		done += generated
		apiCalls += calls
		topics = append(topics, used...)
	}

	section := func(n int) Request {
		return Request{JobID: req.JobID, Count: n, Delay: req.Delay, OnProgress: sectionProgress()}
	}

	if req.ShortAnswer > 0 {
		b, err := e.ShortAnswer(ctx, section(req.ShortAnswer))
		paper.Questions.ShortAnswer = b.Questions
		record(question.TypeShortAnswer, req.ShortAnswer, b.Count, b.APICalls, b.Outcome, b.TopicsUsed, err)
	}
	if req.Structured > 0 {
		b, err := e.Structured(ctx, section(req.Structured))
		paper.Questions.Structured = b.Questions
		record(question.TypeStructured, req.Structured, b.Count, b.APICalls, b.Outcome, b.TopicsUsed, err)
	}
	if req.Essay > 0 {
		b, err := e.Essay(ctx, section(req.Essay))
		paper.Questions.Essay = b.Questions
		record(question.TypeEssay, req.Essay, b.Count, b.APICalls, b.Outcome, b.TopicsUsed, err)
	}

	paper.TopicsUsed = uniqueTopics(topics)
	paper.APICalls = apiCalls
	paper.ElapsedSeconds = elapsedSeconds(e.now().Sub(start))

	if paper.Total() == 0 {
		if len(failures) == 0 {
			return paper, fmt.Errorf("model paper: no sections requested")
		}
		return paper, &PaperError{Errs: failures}
	}

	slog.Info("model paper generated",
		"paper_id", paper.ID,
		"questions", paper.Total(),
		"requested", total,
		"api_calls", paper.APICalls,
		"elapsed_seconds", paper.ElapsedSeconds,
	)
	return paper, nil
}
