// Package http adapts the dispatcher to the HTTP JSON surface: the
// three protocol endpoints plus the operational routes (health,
// version, metrics, audit trail).
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/tooldesk/tooldesk/internal/core"
	"github.com/tooldesk/tooldesk/internal/db"
	"github.com/tooldesk/tooldesk/internal/telemetry"
)

const maxRequestBodyBytes = 1 << 20

// BuildInfo carries the build identity served by /version; the values
// are injected through ldflags at release time.
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
}

// CallLister serves the /tool_calls audit endpoint. *db.Store satisfies
// it; a nil lister reports auditing as not enabled.
type CallLister interface {
	ListRecent(ctx context.Context, limit int) ([]*db.ToolCall, error)
}

// Server serves the tool protocol over HTTP.
type Server struct {
	dispatcher *core.Dispatcher
	calls      CallLister
	srv        *http.Server
	logger     *slog.Logger
	build      BuildInfo
}

// NewServer wires the routes. Protocol endpoints answer 200 with a
// response envelope even for tool-level failures; only transport
// problems (malformed body, missing tool name) use HTTP error codes.
func NewServer(addr string, dispatcher *core.Dispatcher, calls CallLister, logger *slog.Logger, build BuildInfo) *Server {
	s := &Server{
		dispatcher: dispatcher,
		calls:      calls,
		logger:     logger,
		build:      build,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))
	r.Use(withLogging(logger))

	r.Get("/initialize", s.handleInitialize)
	r.Get("/list_tools", s.handleListTools)
	r.Post("/execute_tool", s.handleExecuteTool)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/version", s.handleVersion)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/tool_calls", s.handleToolCalls)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	s.logger.Info("http server starting", "addr", s.srv.Addr)
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.srv.Serve(ln)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleInitialize(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dispatcher.Initialize())
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.dispatcher.ListTools())
}

type executeToolBody struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

func (s *Server) handleExecuteTool(w http.ResponseWriter, r *http.Request) {
	var body executeToolBody
	if err := decodeJSONBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, core.ErrorResponse("Invalid JSON in request body"))
		return
	}
	if body.Name == "" {
		writeJSON(w, http.StatusBadRequest, core.ErrorResponse("Tool name not provided"))
		return
	}

	ctx := core.WithTraceID(r.Context(), uuid.New().String())
	writeJSON(w, http.StatusOK, s.dispatcher.ExecuteTool(ctx, body.Name, body.Arguments))
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.build)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	io.WriteString(w, telemetry.RenderPrometheus())
}

func (s *Server) handleToolCalls(w http.ResponseWriter, r *http.Request) {
	if s.calls == nil {
		writeErr(w, http.StatusNotFound, "auditing not enabled")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeErr(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	calls, err := s.calls.ListRecent(r.Context(), limit)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func withLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(sw, r)
			telemetry.IncHTTPRequest(r.Method, sw.status)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", fmt.Sprintf("%dms", time.Since(start).Milliseconds()),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
