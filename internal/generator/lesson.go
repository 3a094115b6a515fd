package generator

import (
	"context"
	"log/slog"
	"time"

	"github.com/p-n-ai/ganitha/internal/ai"
	"github.com/p-n-ai/ganitha/internal/parser"
	"github.com/p-n-ai/ganitha/internal/prompt"
	"github.com/p-n-ai/ganitha/internal/question"
	"github.com/p-n-ai/ganitha/internal/retriever"
)

// LessonRequest asks for Count lesson-wise questions on one topic.
type LessonRequest struct {
	JobID      string
	Topic      string
	Difficulty question.Difficulty
	Count      int
	Delay      time.Duration
	OnProgress ProgressFunc
}

// lessonQuery is the retrieval query for a topic's worked examples.
func lessonQuery(topic string) string {
	return topic + " උදාහරණ ප්‍රශ්න"
}

// Lesson generates lesson-wise questions for a topic and difficulty,
// grounded with retrieved examples when the retriever has any.
func (e *Engine) Lesson(ctx context.Context, req LessonRequest) (question.Batch[question.Lesson], error) {
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = question.Medium
	}
	batch := question.Batch[question.Lesson]{
		Type:       question.TypeLesson,
		Topic:      req.Topic,
		Difficulty: difficulty,
		Requested:  req.Count,
		TopicsUsed: []string{req.Topic},
		Model:      e.model,
		Questions:  []question.Lesson{},
	}

	cfg, _ := e.topics.Lookup(req.Topic)
	grounding := e.ground(ctx, req.Topic)
	batch.GroundingUsed = !grounding.Empty()

	examples := grounding.Texts(retriever.Examples, retriever.Exercises)
	guidelines := grounding.Texts(retriever.Guidelines)

	r := e.newRun(req.JobID, question.TypeLesson)
	res, err := accumulate(ctx, r, loopSpec[question.Lesson]{
		requested: req.Count,
		delay:     ClampDelay(req.Delay),
		progress:  req.OnProgress,
		call: func(ctx context.Context, n, have int) ([]question.Lesson, error) {
			raw, err := r.complete(ctx, ai.TaskLesson, prompt.Lesson(prompt.LessonInput{
				Topic:      req.Topic,
				Difficulty: difficulty,
				Count:      n,
				Start:      have + 1,
				Config:     cfg,
				Examples:   examples,
				Guidelines: guidelines,
			}))
			if err != nil {
				return nil, err
			}
			return parser.Lesson(raw), nil
		},
	})

	batch.Attempts = res.attempts
	batch.APICalls = r.apiCalls
	batch.ElapsedSeconds = elapsedSeconds(res.elapsed)
	if err != nil {
		return batch, err
	}
	batch.Questions = res.questions
	batch.Count = len(res.questions)
	batch.Outcome = res.outcome
	return batch, nil
}

// ground retrieves lesson context. Failures degrade to an empty context.
func (e *Engine) ground(ctx context.Context, topic string) retriever.Context {
	if !e.retriever.Ready() {
		return retriever.Context{}
	}
	rc, err := e.retriever.Retrieve(ctx, lessonQuery(topic), topic, lessonContextResults)
	if err != nil {
		slog.Warn("context retrieval failed, generating without grounding", "topic", topic, "error", err)
		return retriever.Context{}
	}
	if rc.Empty() {
		slog.Info("no context found for topic", "topic", topic)
	}
	return rc
}
