package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Controller is the session API the server drives.
type Controller interface {
	Start(ctx context.Context, slots map[string]any) (*session.Result, error)
	Resume(ctx context.Context, sessionID, input string) (*session.Result, error)
	Status(ctx context.Context, sessionID string) (*session.Status, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// StartRequest is the body of POST /sessions.
type StartRequest struct {
	Slots map[string]any `json:"slots"`
}

// ResumeRequest is the body of POST /sessions/{id}/resume.
type ResumeRequest struct {
	Input string `json:"input"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server handles the HTTP API.
type Server struct {
	Controller Controller
	Streams    *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	graph   string
	version string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithGraph sets the Mermaid document served at /graph.
func WithGraph(mermaid string) Option {
	return func(s *Server) { s.graph = mermaid }
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// NewHandler creates the HTTP handler for a controller.
func NewHandler(ctrl Controller, opts ...Option) http.Handler {
	s := &Server{
		Controller: ctrl,
		Streams:    NewStreamManager(),
		logger:     logging.NewNop(),
		version:    "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/graph", s.GetGraph)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.StartSession)
		r.Get("/", s.ListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetStatus)
			r.Delete("/", s.DeleteSession)
			r.Post("/resume", s.ResumeSession)
			r.Get("/events", s.SubscribeEvents)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartSession handles POST /sessions.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.logger.WarnContext(r.Context(), "start: invalid request body", "error", err)
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	res, err := s.Controller.Start(r.Context(), body.Slots)
	if err != nil {
		s.fail(w, r, "start", err)
		return
	}
	s.publish(res)
	writeJSON(w, http.StatusCreated, res)
}

// ResumeSession handles POST /sessions/{id}/resume.
func (s *Server) ResumeSession(w http.ResponseWriter, r *http.Request) {
	var body ResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.WarnContext(r.Context(), "resume: invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := s.Controller.Resume(r.Context(), chi.URLParam(r, "id"), body.Input)
	if err != nil {
		s.fail(w, r, "resume", err)
		return
	}
	s.publish(res)
	writeJSON(w, http.StatusOK, res)
}

// GetStatus handles GET /sessions/{id}.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.Controller.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "status", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Controller.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Controller.List(r.Context())
	if err != nil {
		s.fail(w, r, "list", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	if s.graph == "" {
		writeError(w, http.StatusNotFound, "graph not available")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(s.graph))
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "parley-http",
		"version": s.version,
	})
}

// publish fans the produced messages out to event subscribers.
func (s *Server) publish(res *session.Result) {
	for _, m := range res.Messages {
		if b, err := json.Marshal(m); err == nil {
			s.Streams.Broadcast(res.SessionID, string(b))
		}
	}
	if res.Status.Terminal {
		if b, err := json.Marshal(res.Status); err == nil {
			s.Streams.Broadcast(res.SessionID, string(b))
		}
	}
}

// fail logs err in full and writes only a neutral message.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), op+" failed", "error", err)
	} else {
		s.logger.WarnContext(r.Context(), op+" rejected", "error", err)
	}
	writeError(w, status, msg)
}

// classify maps an error to a status code and a message safe to show a student.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "session not found"
	case errors.Is(err, domain.ErrSessionExists):
		return http.StatusConflict, "session already exists"
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "that message could not be accepted, please try again"
	case errors.Is(err, domain.ErrSessionUnavailable):
		return http.StatusServiceUnavailable, "the session is temporarily unavailable, please retry"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "the request took too long, please retry"
	default:
		return http.StatusInternalServerError, "something went wrong on our side, please try again later"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
