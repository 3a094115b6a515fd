package generator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/p-n-ai/ganitha/internal/ai"
	"github.com/p-n-ai/ganitha/internal/question"
)

// ErrDeadline stops a loop that ran past the engine's wall-clock ceiling.
var ErrDeadline = errors.New("generation deadline exceeded")

// item is a generated question that can be deduplicated and renumbered.
type item[T any] interface {
	Text() string
	WithNumber(n int) T
}

// run carries the per-request state shared by every attempt.
type run struct {
	e        *Engine
	jobID    string
	typ      question.Type
	apiCalls int
}

func (e *Engine) newRun(jobID string, t question.Type) *run {
	return &run{e: e, jobID: jobID, typ: t}
}

// complete issues one rate-limited model call and returns the raw text.
func (r *run) complete(ctx context.Context, task ai.TaskType, prompt string) (string, error) {
	resp, err := r.e.complete(ctx, r.jobID, r.typ, task, prompt)
	if err == nil || ctx.Err() == nil {
		r.apiCalls++
	}
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

type loopSpec[T item[T]] struct {
	requested int
	delay     time.Duration
	progress  ProgressFunc
	// call requests n questions; have is the number already accumulated.
	call func(ctx context.Context, n, have int) ([]T, error)
}

type loopResult[T any] struct {
	questions []T
	attempts  int
	outcome   question.Outcome
	elapsed   time.Duration
}

// accumulate runs the attempt loop until the request is filled or the plan's
// attempt budget is spent. Only a run that accumulated nothing is an error.
func accumulate[T item[T]](ctx context.Context, r *run, s loopSpec[T]) (loopResult[T], error) {
	e := r.e
	plan := e.plans[r.typ]
	start := e.now()
	var deadline time.Time
	if e.deadline > 0 {
		deadline = start.Add(e.deadline)
	}

	var (
		acc      []T
		seen     = make(map[string]struct{})
		attempts int
		lastErr  error
	)

	report := func() {
		if s.progress != nil {
			s.progress(Progress{
				Type:      r.typ,
				Generated: len(acc),
				Requested: s.requested,
				Attempts:  attempts,
				APICalls:  r.apiCalls,
			})
		}
	}

	for len(acc) < s.requested && attempts < plan.MaxAttempts {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		if !deadline.IsZero() && !e.now().Before(deadline) {
			slog.Warn("generation deadline reached", "type", r.typ, "attempts", attempts, "generated", len(acc))
			if lastErr == nil {
				lastErr = ErrDeadline
			}
			break
		}

		attempts++
		n := plan.BatchSize(s.requested-len(acc), s.requested)
		slog.Info("generation attempt",
			"type", r.typ,
			"attempt", attempts,
			"max_attempts", plan.MaxAttempts,
			"batch_size", n,
			"generated", len(acc),
			"requested", s.requested,
		)

		batch, err := s.call(ctx, n, len(acc))
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			wait := e.backoff(err, attempts, plan.errorWait(s.delay))
			slog.Warn("generation call failed",
				"type", r.typ,
				"attempt", attempts,
				"kind", ai.KindOf(err).String(),
				"backoff", wait,
				"error", err,
			)
			report()
			if attempts < plan.MaxAttempts {
				if err := e.sleep(ctx, wait); err != nil {
					lastErr = err
					break
				}
			}
			continue
		}

		added := 0
		for _, q := range batch {
			if len(acc) >= s.requested {
				break
			}
			key := dedupeKey(q.Text())
			if _, dup := seen[key]; dup {
				slog.Debug("dropping duplicate question", "type", r.typ, "key", key)
				continue
			}
			seen[key] = struct{}{}
			acc = append(acc, q.WithNumber(len(acc)+1))
			added++
		}
		slog.Info("generation batch parsed",
			"type", r.typ,
			"parsed", len(batch),
			"added", added,
			"generated", len(acc),
			"requested", s.requested,
		)
		report()

		if len(acc) < s.requested && attempts < plan.MaxAttempts {
			pause := plan.Pause
			if plan.PauseIsDelay {
				pause = s.delay
			}
			if err := e.sleep(ctx, pause); err != nil {
				lastErr = err
				break
			}
		}
	}

	res := loopResult[T]{
		questions: acc,
		attempts:  attempts,
		elapsed:   e.now().Sub(start),
	}
	if len(acc) == 0 {
		if lastErr == nil {
			lastErr = ErrNoQuestions
		}
		return res, &HardFailureError{Type: r.typ, Attempts: attempts, Err: lastErr}
	}

	res.outcome = question.Success
	if len(acc) < s.requested {
		res.outcome = question.PartialFailure
		slog.Warn("generation finished short",
			"type", r.typ,
			"generated", len(acc),
			"requested", s.requested,
			"attempts", attempts,
		)
	}
	return res, nil
}
