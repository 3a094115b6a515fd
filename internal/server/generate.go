package server

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/p-n-ai/ganitha/internal/generator"
	"github.com/p-n-ai/ganitha/internal/jobs"
	"github.com/p-n-ai/ganitha/internal/question"
)

// batchResponse is the body of every single-type generation endpoint.
type batchResponse[T any] struct {
	Success bool   `json:"success"`
	TaskID  string `json:"task_id"`
	question.Batch[T]
}

type lessonRequest struct {
	Topic        string `json:"topic"`
	Difficulty   string `json:"difficulty"`
	NumQuestions *int   `json:"num_questions"`
}

func (s *Server) handleLesson(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if !decode(w, r, &req) {
		return
	}
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}
	difficulty, err := question.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, "difficulty must be easy, medium or hard")
		return
	}
	n, ok := count(w, "num_questions", req.NumQuestions, 5, 1, 10)
	if !ok {
		return
	}

	runSync(s, w, r, "lesson", n, func(ctx context.Context, h *jobs.Handle) (question.Batch[question.Lesson], error) {
		return s.engine.Lesson(ctx, generator.LessonRequest{
			JobID:      h.ID(),
			Topic:      topic,
			Difficulty: difficulty,
			Count:      n,
			OnProgress: h.Progress,
		})
	})
}

type typedRequest struct {
	Count        *int     `json:"count"`
	Topics       []string `json:"topics"`
	DelaySeconds *int     `json:"delay_seconds"`
}

func (s *Server) handleShortAnswer(w http.ResponseWriter, r *http.Request) {
	handleTyped(s, w, r, question.TypeShortAnswer, 5, 25, s.engine.ShortAnswer)
}

func (s *Server) handleStructured(w http.ResponseWriter, r *http.Request) {
	handleTyped(s, w, r, question.TypeStructured, 3, 10, s.engine.Structured)
}

func (s *Server) handleEssay(w http.ResponseWriter, r *http.Request) {
	handleTyped(s, w, r, question.TypeEssay, 2, 10, s.engine.Essay)
}

func handleTyped[T any](
	s *Server, w http.ResponseWriter, r *http.Request,
	t question.Type, def, hi int,
	generate func(context.Context, generator.Request) (question.Batch[T], error),
) {
	var req typedRequest
	if !decode(w, r, &req) {
		return
	}
	n, ok := count(w, "count", req.Count, def, 1, hi)
	if !ok {
		return
	}
	delay, ok := s.requestDelay(w, req.DelaySeconds)
	if !ok {
		return
	}
	topics := cleanTopics(req.Topics)

	runSync(s, w, r, string(t), n, func(ctx context.Context, h *jobs.Handle) (question.Batch[T], error) {
		return generate(ctx, generator.Request{
			JobID:      h.ID(),
			Topics:     topics,
			Count:      n,
			Delay:      delay,
			OnProgress: h.Progress,
		})
	})
}

// runSync holds the generation slot for the duration of the request.
func runSync[T any](
	s *Server, w http.ResponseWriter, r *http.Request, kind string, total int,
	fn func(context.Context, *jobs.Handle) (question.Batch[T], error),
) {
	h, err := s.jobs.Begin(kind, total)
	if err != nil {
		fail(w, err)
		return
	}
	var batch question.Batch[T]
	_, err = h.Run(func() (string, error) {
		var err error
		batch, err = fn(r.Context(), h)
		return "", err
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse[T]{Success: true, TaskID: h.ID(), Batch: batch})
}

type paperRequest struct {
	ShortAnswerCount *int `json:"short_answer_count"`
	StructuredCount  *int `json:"structured_count"`
	EssayCount       *int `json:"essay_count"`
	DelaySeconds     *int `json:"delay_seconds"`
}

type paperResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"task_id"`
	question.Paper
}

// parsePaperRequest resolves the body of both paper endpoints.
func (s *Server) parsePaperRequest(w http.ResponseWriter, r *http.Request) (generator.PaperRequest, bool) {
	var body paperRequest
	if !decode(w, r, &body) {
		return generator.PaperRequest{}, false
	}
	req := generator.DefaultPaperRequest()
	var ok bool
	if req.ShortAnswer, ok = count(w, "short_answer_count", body.ShortAnswerCount, req.ShortAnswer, 1, 25); !ok {
		return req, false
	}
	if req.Structured, ok = count(w, "structured_count", body.StructuredCount, req.Structured, 1, 10); !ok {
		return req, false
	}
	if req.Essay, ok = count(w, "essay_count", body.EssayCount, req.Essay, 1, 10); !ok {
		return req, false
	}
	if req.Delay, ok = s.requestDelay(w, body.DelaySeconds); !ok {
		return req, false
	}
	return req, true
}

func (s *Server) handlePaper(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parsePaperRequest(w, r)
	if !ok {
		return
	}
	h, err := s.jobs.Begin("paper", req.Total())
	if err != nil {
		fail(w, err)
		return
	}

	var paper question.Paper
	_, err = h.Run(func() (string, error) {
		var err error
		paper, err = s.generatePaper(r.Context(), h, req)
		return paper.ID, err
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paperResponse{Success: true, TaskID: h.ID(), Paper: paper})
}

func (s *Server) handlePaperAsync(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parsePaperRequest(w, r)
	if !ok {
		return
	}
	h, err := s.jobs.Begin("paper", req.Total())
	if err != nil {
		fail(w, err)
		return
	}

	s.jobs.Go(r.Context(), h, func(ctx context.Context) (string, error) {
		paper, err := s.generatePaper(ctx, h, req)
		if err != nil {
			return "", err
		}
		return paper.ID, nil
	})

	writeJSON(w, http.StatusAccepted, map[string]any{
		"success":         true,
		"task_id":         h.ID(),
		"status":          jobs.Running,
		"total_requested": req.Total(),
		"progress_url":    "/model-paper/progress",
		"job_url":         "/model-paper/jobs/" + h.ID(),
	})
}

// generatePaper runs the paper and archives it when it has any questions.
func (s *Server) generatePaper(ctx context.Context, h *jobs.Handle, req generator.PaperRequest) (question.Paper, error) {
	req.JobID = h.ID()
	req.OnProgress = h.Progress
	paper, err := s.engine.Paper(ctx, req)
	if err != nil {
		return paper, err
	}
	if err := s.archive.Save(ctx, paper); err != nil {
		slog.Error("failed to archive paper", "paper_id", paper.ID, "error", err)
	}
	return paper, nil
}

// requestDelay validates an optional delay in seconds.
func (s *Server) requestDelay(w http.ResponseWriter, seconds *int) (time.Duration, bool) {
	if seconds == nil {
		return s.delay, true
	}
	n, ok := count(w, "delay_seconds", seconds, 0, 2, 10)
	if !ok {
		return 0, false
	}
	return time.Duration(n) * time.Second, true
}

func cleanTopics(ts []string) []string {
	var out []string
	for _, t := range ts {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
