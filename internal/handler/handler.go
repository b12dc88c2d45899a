package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pavelanni/interviewer/internal/interview"
	"github.com/pavelanni/interviewer/internal/model"
	"github.com/pavelanni/interviewer/internal/render"
)

const maxBodyBytes = 1 << 20

// Sessions is the interview surface served over HTTP.
type Sessions interface {
	Start(ctx context.Context) (*interview.View, error)
	Submit(ctx context.Context, id, text string) (*interview.View, error)
	Continue(ctx context.Context, id string) (*interview.View, error)
	State(ctx context.Context, id string) (*interview.State, error)
	Report(ctx context.Context, id string) (*model.FinalReport, error)
	Transcript(ctx context.Context, id string) (*model.Transcript, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	sessions Sessions
	topic    string
	gatherer prometheus.Gatherer
}

// New creates a new Handler. A nil gatherer serves the default registry.
func New(s Sessions, cfg model.InterviewConfig, gatherer prometheus.Gatherer) (*Handler, error) {
	if s == nil {
		return nil, errors.New("sessions are required")
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Handler{sessions: s, topic: cfg.Topic, gatherer: gatherer}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/interview/", h.handleInterview)
	r.Get("/interview/{sessionID}", h.handleState)
	r.Get("/report/{sessionID}", h.handleReport)
	r.Get("/transcript/{sessionID}", h.handleTranscript)
	r.Get("/healthz", h.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
}

type interviewRequest struct {
	SessionID string `json:"session_id"`
	UserInput string `json:"user_input"`
}

// handleInterview creates a session when no id is given, reports the current
// message when no input is given, and submits the answer otherwise.
func (h *Handler) handleInterview(w http.ResponseWriter, r *http.Request) {
	var req interviewRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var view *interview.View
	switch {
	case req.SessionID == "":
		view, err = h.sessions.Start(r.Context())
	case strings.TrimSpace(req.UserInput) == "":
		view, err = h.sessions.Continue(r.Context(), req.SessionID)
	default:
		view, err = h.sessions.Submit(r.Context(), req.SessionID, req.UserInput)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, view)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.State(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, st)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	report, err := h.sessions.Report(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.ReportPage(report, h.topic).Render(r.Context(), w); err != nil {
			slog.Error("render error", "session_id", id, "error", err)
		}
		return
	}

	var buf bytes.Buffer
	if err := render.PDF(r.Context(), &buf, report, h.topic); err != nil {
		slog.Error("pdf generation failed", "session_id", id, "error", err)
		http.Error(w, "report rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+render.Filename(id, "pdf")+`"`)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("write pdf", "session_id", id, "error", err)
	}
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	tr, err := h.sessions.Transcript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tr)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError maps orchestrator errors onto HTTP status codes. Anything that
// is not a known sentinel is logged and reported as an internal error.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
	case errors.Is(err, interview.ErrNoActiveQuestion):
		http.Error(w, "no active question", http.StatusConflict)
	case errors.Is(err, interview.ErrReportUnavailable):
		http.Error(w, "report unavailable", http.StatusConflict)
	case errors.As(err, new(*interview.PersistenceError)):
		// Reads of evicted sessions fall through to the store.
		slog.Error("store read failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	default:
		slog.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
