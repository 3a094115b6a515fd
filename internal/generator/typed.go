package generator

import (
	"context"
	"time"

	"github.com/p-n-ai/ganitha/internal/ai"
	"github.com/p-n-ai/ganitha/internal/parser"
	"github.com/p-n-ai/ganitha/internal/prompt"
	"github.com/p-n-ai/ganitha/internal/question"
	"github.com/p-n-ai/ganitha/internal/topics"
)

// referenceCount is how many past-paper questions each typed prompt quotes.
const referenceCount = 2

// Request asks for Count questions of one paper type.
type Request struct {
	JobID string
	// Topics restricts generation. When empty, topics are drawn from the corpus.
	Topics     []string
	Count      int
	Delay      time.Duration
	OnProgress ProgressFunc
}

// typedSpec ties a paper question type to its prompt builder and parser.
type typedSpec[T item[T]] struct {
	typ   question.Type
	task  ai.TaskType
	build func(prompt.PaperInput) string
	parse func(string) []T
	// topicFactor scales the number of topics drawn per requested question.
	topicFactor int
}

func runTyped[T item[T]](ctx context.Context, e *Engine, req Request, spec typedSpec[T]) (question.Batch[T], error) {
	batch := question.Batch[T]{Type: spec.typ, Requested: req.Count, Questions: []T{}}
	if !e.corpus.Loaded() {
		return batch, ErrPrecondition
	}

	selected := req.Topics
	if len(selected) == 0 {
		selected = e.corpus.SelectTopics(req.Count * spec.topicFactor)
	}
	refs := e.corpus.SampleReferences(selected, spec.typ, referenceCount)
	guidance := e.paperGuidance(selected)

	r := e.newRun(req.JobID, spec.typ)
	res, err := accumulate(ctx, r, loopSpec[T]{
		requested: req.Count,
		delay:     ClampDelay(req.Delay),
		progress:  req.OnProgress,
		call: func(ctx context.Context, n, _ int) ([]T, error) {
			raw, err := r.complete(ctx, spec.task, spec.build(prompt.PaperInput{
				Topics:     selected,
				Count:      n,
				References: refs,
				Guidance:   guidance,
			}))
			if err != nil {
				return nil, err
			}
			return spec.parse(raw), nil
		},
	})

	batch.TopicsUsed = uniqueTopics(selected)
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

// paperGuidance returns configured medium-difficulty guidance when the
// request targets exactly one configured topic.
func (e *Engine) paperGuidance(selected []string) *topics.Params {
	ts := uniqueTopics(selected)
	if len(ts) != 1 {
		return nil
	}
	cfg, ok := e.topics.Get(ts[0])
	if !ok {
		return nil
	}
	p, ok := cfg.Params(question.Medium)
	if !ok {
		return nil
	}
	return &p
}

// ShortAnswer generates short-answer questions.
func (e *Engine) ShortAnswer(ctx context.Context, req Request) (question.Batch[question.ShortAnswer], error) {
	return runTyped(ctx, e, req, typedSpec[question.ShortAnswer]{
		typ:         question.TypeShortAnswer,
		task:        ai.TaskShortAnswer,
		build:       prompt.ShortAnswer,
		parse:       parser.ShortAnswer,
		topicFactor: 1,
	})
}

// Structured generates structured questions.
func (e *Engine) Structured(ctx context.Context, req Request) (question.Batch[question.Structured], error) {
	return runTyped(ctx, e, req, typedSpec[question.Structured]{
		typ:         question.TypeStructured,
		task:        ai.TaskStructured,
		build:       prompt.Structured,
		parse:       parser.Structured,
		topicFactor: 1,
	})
}

// Essay generates essay-type questions. Twice as many topics are drawn so
// scenarios can combine them.
func (e *Engine) Essay(ctx context.Context, req Request) (question.Batch[question.Essay], error) {
	return runTyped(ctx, e, req, typedSpec[question.Essay]{
		typ:         question.TypeEssay,
		task:        ai.TaskEssay,
		build:       prompt.Essay,
		parse:       parser.Essay,
		topicFactor: 2,
	})
}
