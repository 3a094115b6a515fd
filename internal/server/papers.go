package server

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/ganitha/internal/export"
	"github.com/p-n-ai/ganitha/internal/jobs"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.jobs.Status())
}

// handleProgressStream pushes a status snapshot on every job update and on
// a fixed tick until the client goes away.
func (s *Server) handleProgressStream(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer c.CloseNow()

	ctx := c.CloseRead(r.Context())
	updates, unsubscribe := s.jobs.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(s.progressInterval)
	defer ticker.Stop()

	for {
		var status jobs.Status
		select {
		case <-ctx.Done():
			c.Close(websocket.StatusNormalClosure, "")
			return
		case status = <-updates:
		case <-ticker.C:
			status = s.jobs.Status()
		}

		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := wsjson.Write(writeCtx, c, status)
		cancel()
		if err != nil {
			slog.Debug("progress stream closed", "error", err)
			return
		}
	}
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Lookup(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleLastPaper(w http.ResponseWriter, r *http.Request) {
	paper, err := s.archive.Latest(r.Context())
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paper)
}

func (s *Server) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	paper, err := s.archive.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, paper)
}

func (s *Server) handlePaperXLSX(w http.ResponseWriter, r *http.Request) {
	paper, err := s.archive.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WritePaper(&buf, paper); err != nil {
		slog.Error("paper export failed", "paper_id", paper.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "Export failed")
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+paper.ID+`.xlsx"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Warn("write export", "paper_id", paper.ID, "error", err)
	}
}
