// Package server exposes the generation engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/p-n-ai/ganitha/internal/ai"
	"github.com/p-n-ai/ganitha/internal/archive"
	"github.com/p-n-ai/ganitha/internal/generator"
	"github.com/p-n-ai/ganitha/internal/jobs"
)

// Check is a named readiness probe.
type Check func(ctx context.Context) error

// Config holds the server's collaborators.
type Config struct {
	Engine  *generator.Engine
	Jobs    *jobs.Manager
	Archive archive.Store
	// Checks are run by /readyz; any failure reports 503.
	Checks map[string]Check
	// Delay is the paper inter-batch delay used when a request omits one.
	Delay time.Duration
	// ProgressInterval is how often the websocket stream refreshes elapsed
	// time between job updates.
	ProgressInterval time.Duration
}

// Server serves the HTTP API.
type Server struct {
	engine           *generator.Engine
	jobs             *jobs.Manager
	archive          archive.Store
	checks           map[string]Check
	delay            time.Duration
	progressInterval time.Duration
}

// New creates a server, filling unset collaborators with in-memory defaults.
func New(cfg Config) *Server {
	s := &Server{
		engine:           cfg.Engine,
		jobs:             cfg.Jobs,
		archive:          cfg.Archive,
		checks:           cfg.Checks,
		delay:            generator.ClampDelay(cfg.Delay),
		progressInterval: cfg.ProgressInterval,
	}
	if s.engine == nil {
		s.engine = generator.NewEngine(generator.EngineConfig{})
	}
	if s.jobs == nil {
		s.jobs = jobs.NewManager()
	}
	if s.archive == nil {
		s.archive = archive.NewMemoryStore()
	}
	if s.progressInterval <= 0 {
		s.progressInterval = time.Second
	}
	return s
}

// Handler returns the HTTP router.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /topics", s.handleTopics)
	mux.HandleFunc("POST /corpus/reload", s.handleCorpusReload)
	mux.HandleFunc("GET /corpus/stats", s.handleCorpusStats)
	mux.HandleFunc("POST /retrieve-context", s.handleRetrieveContext)

	mux.HandleFunc("POST /generate", s.handleLesson)
	mux.HandleFunc("POST /model-paper/generate/short-answer", s.handleShortAnswer)
	mux.HandleFunc("POST /model-paper/generate/structured", s.handleStructured)
	mux.HandleFunc("POST /model-paper/generate/essay", s.handleEssay)
	mux.HandleFunc("POST /model-paper/generate", s.handlePaper)
	mux.HandleFunc("POST /model-paper/generate-async", s.handlePaperAsync)

	mux.HandleFunc("GET /model-paper/progress", s.handleProgress)
	mux.HandleFunc("GET /model-paper/progress/ws", s.handleProgressStream)
	mux.HandleFunc("GET /model-paper/jobs/{id}", s.handleJob)
	mux.HandleFunc("GET /model-paper/last", s.handleLastPaper)
	mux.HandleFunc("GET /model-paper/papers/{id}", s.handleGetPaper)
	mux.HandleFunc("GET /model-paper/papers/{id}/xlsx", s.handlePaperXLSX)
	return mux
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	failed := make(map[string]string)
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": failed})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	c := s.engine.Corpus()
	writeJSON(w, http.StatusOK, map[string]any{
		"model":             s.engine.Model(),
		"corpus_loaded":     c.Loaded(),
		"corpus_topics":     len(c.Topics()),
		"topics_configured": s.engine.Topics().Len(),
		"retriever_ready":   s.engine.Retriever().Ready(),
		"generation":        s.jobs.Status(),
	})
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"configured": s.engine.Topics().Topics(),
		"corpus":     s.engine.Corpus().Topics(),
	})
}

func (s *Server) handleCorpusReload(w http.ResponseWriter, r *http.Request) {
	c := s.engine.Corpus()
	if !c.Reload() {
		writeError(w, http.StatusServiceUnavailable, "Reference corpus could not be loaded")
		return
	}
	writeJSON(w, http.StatusOK, c.Stats())
}

func (s *Server) handleCorpusStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Corpus().Stats())
}

type retrieveRequest struct {
	Query string `json:"query"`
	Topic string `json:"topic"`
	N     *int   `json:"n"`
}

func (s *Server) handleRetrieveContext(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	n, ok := count(w, "n", req.N, 3, 1, 10)
	if !ok {
		return
	}

	rt := s.engine.Retriever()
	if !rt.Ready() {
		writeError(w, http.StatusServiceUnavailable, "Context retriever is not available")
		return
	}
	rc, err := rt.Retrieve(r.Context(), req.Query, req.Topic, n)
	if err != nil {
		slog.Error("context retrieval failed", "query", req.Query, "error", err)
		writeError(w, http.StatusBadGateway, "Context retrieval failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   req.Query,
		"topic":   req.Topic,
		"found":   !rc.Empty(),
		"context": rc,
	})
}

// fail maps an error to its HTTP status.
func fail(w http.ResponseWriter, err error) {
	var hard *generator.HardFailureError
	var paperErr *generator.PaperError
	switch {
	case errors.Is(err, jobs.ErrConflict):
		writeError(w, http.StatusConflict, "A generation is already in progress. Check /model-paper/progress and try again when it finishes")
	case errors.Is(err, generator.ErrPrecondition):
		writeError(w, http.StatusServiceUnavailable, "Reference corpus is not loaded")
	case errors.Is(err, archive.ErrNotFound):
		writeError(w, http.StatusNotFound, "Paper not found")
	case ai.IsRateLimited(err):
		slog.Warn("generation rate limited", "error", err)
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Wait 2-3 minutes and try again")
	case errors.As(err, &hard), errors.As(err, &paperErr):
		slog.Error("generation failed", "error", err)
		writeError(w, http.StatusBadGateway, "Generation failed: "+err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
	return false
}

// count resolves an optional integer field against its default and bounds.
func count(w http.ResponseWriter, field string, v *int, def, lo, hi int) (int, bool) {
	if v == nil {
		return def, true
	}
	if *v < lo || *v > hi {
		writeError(w, http.StatusBadRequest, field+" must be between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi))
		return 0, false
	}
	return *v, true
}
