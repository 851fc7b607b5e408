// Package http serves the dialog to the voice platform.
//
// Every dialog state has its own endpoint accepting GET and POST. The caller's digits and
// identity are read from the form; continuation values from the query string. Any failure
// to build a turn is answered with the dialog's fallback document and status 200.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/Mause/menu-system/internal/dialog"
	"github.com/Mause/menu-system/internal/logging"
	"github.com/Mause/menu-system/pkg/continuation"
	"github.com/Mause/menu-system/pkg/domain"
	"github.com/Mause/menu-system/pkg/twiml"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Dialog decides each turn.
type Dialog interface {
	Handle(ctx context.Context, state domain.State, turn dialog.Turn) (dialog.Decision, error)
	Fallback() *twiml.Response
}

// Config configures the handler.
type Config struct {
	Dialog Dialog
	Logger *slog.Logger

	// Version is reported by /info.
	Version string

	// AuthToken and VerifySignatures enable request signature checks on dialog endpoints.
	AuthToken        string
	VerifySignatures bool
	// PublicURL is the externally visible base URL, used to reconstruct signed URLs
	// behind a proxy.
	PublicURL string

	// Metrics, when set, is served on /metrics.
	Metrics http.Handler
	// OnFallback is called whenever the fallback document is served.
	OnFallback func()

	// StaticDir, when set, is served under /static/.
	StaticDir string
}

// Server adapts the dialog to HTTP.
type Server struct {
	dialog     Dialog
	logger     *slog.Logger
	version    string
	onFallback func()
}

// NewHandler creates the HTTP handler.
func NewHandler(cfg Config) http.Handler {
	s := &Server{
		dialog:     cfg.Dialog,
		logger:     cfg.Logger,
		version:    strings.TrimSpace(cfg.Version),
		onFallback: cfg.OnFallback,
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	if s.version == "" {
		s.version = "dev"
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(s.logRequests)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.StaticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	}

	r.Group(func(r chi.Router) {
		if cfg.VerifySignatures {
			r.Use(verifySignatures(cfg.AuthToken, cfg.PublicURL, s.logger))
		}
		for _, state := range domain.States() {
			h := s.turn(state)
			r.Get(state.Path(), h)
			r.Post(state.Path(), h)
		}
	})

	return r
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	states := make([]string, 0, len(domain.States()))
	for _, st := range domain.States() {
		states = append(states, st.Path())
	}
	writeJSON(w, map[string]any{
		"app":       "menu-system",
		"version":   s.version,
		"endpoints": states,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// turn returns the handler for one dialog state.
func (s *Server) turn(state domain.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sid := callID(r)

		defer func() {
			if rec := recover(); rec != nil {
				s.logger.ErrorContext(ctx, "turn panicked",
					"state", state,
					"call_sid", sid,
					"panic", rec,
					"stack", string(debug.Stack()))
				s.fallback(w, r)
			}
		}()

		if err := r.ParseForm(); err != nil {
			s.logger.WarnContext(ctx, "invalid form", "state", state, "call_sid", sid, "error", err)
			s.fallback(w, r)
			return
		}
		params, err := continuation.Decode(r.URL.Query())
		if err != nil {
			s.logger.WarnContext(ctx, "invalid continuation", "state", state, "call_sid", sid, "error", err)
			s.fallback(w, r)
			return
		}

		decision, err := s.dialog.Handle(ctx, state, dialog.Turn{
			Digits: r.FormValue("Digits"),
			Caller: r.FormValue("From"),
			CallID: sid,
			Params: params,
		})
		if err != nil {
			s.fallback(w, r)
			return
		}

		body, err := decision.Response.Render()
		if err != nil {
			s.logger.ErrorContext(ctx, "render failed", "state", state, "call_sid", sid, "error", err)
			s.fallback(w, r)
			return
		}
		writeDocument(w, body)
	}
}

func (s *Server) fallback(w http.ResponseWriter, r *http.Request) {
	if s.onFallback != nil {
		s.onFallback()
	}
	body, err := s.dialog.Fallback().Render()
	if err != nil {
		s.logger.ErrorContext(r.Context(), "fallback render failed", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeDocument(w, body)
}

func writeDocument(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", twiml.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// callID identifies the call for logging. Requests without a CallSid get a fresh id.
func callID(r *http.Request) string {
	if sid := r.FormValue("CallSid"); sid != "" {
		return sid
	}
	return uuid.NewString()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.DebugContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
