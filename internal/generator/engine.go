// Package generator drives prompt building, model calls and parsing until a
// request's question count is reached or its attempt budget runs out.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/p-n-ai/ganitha/internal/ai"
	"github.com/p-n-ai/ganitha/internal/corpus"
	"github.com/p-n-ai/ganitha/internal/question"
	"github.com/p-n-ai/ganitha/internal/ratelimit"
	"github.com/p-n-ai/ganitha/internal/retriever"
	"github.com/p-n-ai/ganitha/internal/topics"
)

const (
	// DefaultDelay is the pause after a failed call that was not rate limited.
	DefaultDelay = 4 * time.Second
	MinDelay     = 2 * time.Second
	MaxDelay     = 10 * time.Second

	// DedupeKeyRunes is the width of the duplicate-detection key.
	DedupeKeyRunes = 50

	defaultRateLimitBackoff = 10 * time.Second
	defaultEmptyBackoff     = 3 * time.Second

	lessonContextResults = 3
)

var (
	// ErrPrecondition is returned when the reference corpus is not loaded.
	ErrPrecondition = errors.New("reference corpus not loaded")
	// ErrNoQuestions is the cause of a hard failure in which every call
	// succeeded but nothing parsed.
	ErrNoQuestions = errors.New("no valid questions parsed")
)

// HardFailureError reports a request that ended with zero questions.
type HardFailureError struct {
	Type     question.Type
	Attempts int
	Err      error
}

func (e *HardFailureError) Error() string {
	return fmt.Sprintf("generate %s: no questions after %d attempts: %v", e.Type, e.Attempts, e.Err)
}

func (e *HardFailureError) Unwrap() error { return e.Err }

// Plan bounds the accumulation loop for one question type.
type Plan struct {
	MaxAttempts int
	// Slack is added to the remaining need to offset parser attrition.
	Slack int
	// Cap bounds the batch size. CapAtRequested further bounds it by the
	// request's count.
	Cap            int
	CapAtRequested bool
	// Pause is slept after a successful batch that leaves the request short.
	// PauseIsDelay uses the request's delay instead.
	Pause        time.Duration
	PauseIsDelay bool
	// ErrorBackoff is slept after a failed call that is neither rate
	// limited nor empty. Zero uses the request's delay.
	ErrorBackoff time.Duration
}

func (p Plan) errorWait(delay time.Duration) time.Duration {
	if p.ErrorBackoff > 0 {
		return p.ErrorBackoff
	}
	return delay
}

// BatchSize returns how many questions to ask for in the next call.
func (p Plan) BatchSize(remaining, requested int) int {
	limit := p.Cap
	if p.CapAtRequested && requested < limit {
		limit = requested
	}
	return max(1, min(remaining+p.Slack, limit))
}

// DefaultPlans returns the built-in plan per question type.
func DefaultPlans() map[question.Type]Plan {
	return map[question.Type]Plan{
		question.TypeLesson:      {MaxAttempts: 5, Slack: 2, Cap: 7, Pause: 2 * time.Second, ErrorBackoff: 5 * time.Second},
		question.TypeShortAnswer: {MaxAttempts: 3, Slack: 2, Cap: 5, CapAtRequested: true},
		question.TypeStructured:  {MaxAttempts: 4, Slack: 0, Cap: 2, PauseIsDelay: true},
		question.TypeEssay:       {MaxAttempts: 4, Slack: 0, Cap: 1, PauseIsDelay: true},
	}
}

// Progress is reported at batch boundaries.
type Progress struct {
	Type      question.Type
	Generated int
	Requested int
	Attempts  int
	APICalls  int
}

// ProgressFunc receives progress updates. It must not block.
type ProgressFunc func(Progress)

// EngineConfig holds dependencies for the generation engine.
type EngineConfig struct {
	Provider  ai.Provider
	Limiter   *ratelimit.Limiter
	Corpus    *corpus.Corpus
	Topics    *topics.Store
	Retriever retriever.Retriever
	Events    EventLogger
	Plans     map[question.Type]Plan // merged over DefaultPlans
	Model     string                 // reported on lesson batches
	// Deadline is an optional wall-clock ceiling on one request's loop.
	Deadline time.Duration
	// Sleep waits out backoffs and pauses; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Engine runs generation requests. It is safe for concurrent use; callers
// enforce the single-generation rule.
type Engine struct {
	provider  ai.Provider
	limiter   *ratelimit.Limiter
	corpus    *corpus.Corpus
	topics    *topics.Store
	retriever retriever.Retriever
	events    EventLogger
	plans     map[question.Type]Plan
	model     string
	deadline  time.Duration

	rateLimitBackoff time.Duration
	emptyBackoff     time.Duration
	sleep            func(ctx context.Context, d time.Duration) error
	now              func() time.Time
}

// NewEngine creates a new generation engine.
func NewEngine(cfg EngineConfig) *Engine {
	provider := cfg.Provider
	if provider == nil {
		provider = ai.NewRouter()
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = ratelimit.New(ratelimit.DefaultInterval)
	}
	c := cfg.Corpus
	if c == nil {
		c = corpus.New()
	}
	store := cfg.Topics
	if store == nil {
		store = topics.NewStore()
	}
	r := cfg.Retriever
	if r == nil {
		r = retriever.Nop{}
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	plans := DefaultPlans()
	for t, p := range cfg.Plans {
		plans[t] = p
	}
	model := cfg.Model
	if model == "" {
		model = ai.DefaultModel
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	return &Engine{
		provider:         provider,
		limiter:          limiter,
		corpus:           c,
		topics:           store,
		retriever:        r,
		events:           events,
		plans:            plans,
		model:            model,
		deadline:         cfg.Deadline,
		rateLimitBackoff: defaultRateLimitBackoff,
		emptyBackoff:     defaultEmptyBackoff,
		sleep:            sleep,
		now:              time.Now,
	}
}

// Corpus returns the engine's reference corpus.
func (e *Engine) Corpus() *corpus.Corpus { return e.corpus }

// Topics returns the engine's topic configuration store.
func (e *Engine) Topics() *topics.Store { return e.topics }

// Retriever returns the engine's context retriever.
func (e *Engine) Retriever() retriever.Retriever { return e.retriever }

// Model returns the model name reported on batches.
func (e *Engine) Model() string { return e.model }

// Plan returns the plan in force for t.
func (e *Engine) Plan(t question.Type) Plan { return e.plans[t] }

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClampDelay bounds an inter-call delay. Zero selects DefaultDelay.
func ClampDelay(d time.Duration) time.Duration {
	if d == 0 {
		return DefaultDelay
	}
	return min(max(d, MinDelay), MaxDelay)
}

// backoff returns how long to wait after a failed call on the given attempt.
func (e *Engine) backoff(err error, attempt int, fallback time.Duration) time.Duration {
	switch ai.KindOf(err) {
	case ai.KindRateLimited:
		return time.Duration(attempt) * e.rateLimitBackoff
	case ai.KindEmptyResponse:
		return e.emptyBackoff
	default:
		return fallback
	}
}

// complete waits for the limiter, calls the provider and records the call.
func (e *Engine) complete(ctx context.Context, jobID string, t question.Type, task ai.TaskType, prompt string) (ai.CompletionResponse, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return ai.CompletionResponse{}, err
	}

	start := e.now()
	resp, err := e.provider.Complete(ctx, ai.CompletionRequest{Prompt: prompt, Task: task})

	data := map[string]any{
		"prompt_chars": utf8.RuneCountInString(prompt),
		"latency_ms":   e.now().Sub(start).Milliseconds(),
	}
	eventType := EventModelCall
	if err != nil {
		eventType = EventModelError
		data["error_kind"] = ai.KindOf(err).String()
		data["error"] = err.Error()
	} else {
		data["model"] = resp.Model
		data["input_tokens"] = resp.InputTokens
		data["output_tokens"] = resp.OutputTokens
	}
	if logErr := e.events.LogEvent(Event{
		JobID:        jobID,
		QuestionType: t,
		EventType:    eventType,
		Data:         data,
	}); logErr != nil {
		slog.Warn("failed to log generation event", "error", logErr)
	}

	return resp, err
}

// dedupeKey is the first DedupeKeyRunes runes of the NFC-normalised text
// with runs of whitespace collapsed.
func dedupeKey(s string) string {
	s = norm.NFC.String(strings.Join(strings.Fields(s), " "))
	if utf8.RuneCountInString(s) <= DedupeKeyRunes {
		return s
	}
	return string([]rune(s)[:DedupeKeyRunes])
}

func uniqueTopics(ts []string) []string {
	seen := make(map[string]struct{}, len(ts))
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func elapsedSeconds(d time.Duration) float64 {
	return float64(d.Round(10*time.Millisecond).Milliseconds()) / 1000
}
