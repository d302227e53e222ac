// Package http exposes the read-only operator surface: health, on-demand
// scoring, and Prometheus metrics. It never writes to the canonical log.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/otcflow/signaldesk/internal/application"
	"github.com/otcflow/signaldesk/internal/metrics"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// ServerConfig holds the listener settings.
type ServerConfig struct {
	Listen       string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig binds to localhost only.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Listen:       "127.0.0.1:8087",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Server serves the operator API.
type Server struct {
	router  *mux.Router
	server  *http.Server
	scorer  *application.Scorer
	metrics *metrics.Registry
}

func NewServer(cfg ServerConfig, scorer *application.Scorer, reg *metrics.Registry) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		scorer:  scorer,
		metrics: reg,
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Listen,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	s.router.HandleFunc("/score", s.handleScore).Methods("GET")
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")
	}
	s.router.NotFoundHandler = http.HandlerFunc(s.handleNotFound)
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// scoreResponse is the wire shape of one scoring verdict.
type scoreResponse struct {
	Asset          string   `json:"asset"`
	Time           string   `json:"time"`
	Score          int      `json:"score"`
	Recommendation string   `json:"recommendation"`
	Criteria       []string `json:"criteria"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	asset := r.URL.Query().Get("asset")
	timeStr := r.URL.Query().Get("time")
	if asset == "" || timeStr == "" {
		s.writeError(w, r, http.StatusBadRequest, "missing_parameter",
			"both asset and time query parameters are required")
		return
	}

	res, err := s.scorer.Score(r.Context(), asset, timeStr)
	if err != nil {
		if errors.Is(err, application.ErrInvalidTime) {
			s.writeError(w, r, http.StatusBadRequest, "invalid_time", err.Error())
			return
		}
		s.writeError(w, r, http.StatusServiceUnavailable, "snapshot_unavailable", err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, scoreResponse{
		Asset:          res.Asset,
		Time:           res.Time.String(),
		Score:          res.Score,
		Recommendation: string(res.Tier),
		Criteria:       res.Criteria,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusNotFound, "endpoint_not_found",
		"the requested endpoint does not exist")
}

type errorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("encode http response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := r.Context().Value(requestIDKey).(string)
	s.writeJSON(w, status, errorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		requestID, _ := r.Context().Value(requestIDKey).(string)
		log.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
