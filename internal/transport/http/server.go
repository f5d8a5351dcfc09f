package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"neondraw/internal/app"
	"neondraw/internal/config"
	"neondraw/internal/transport/ws"
)

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	router   *chi.Mux
	hub      *app.GameHub
	config   *config.Config
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, hub *app.GameHub, logger zerolog.Logger) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		hub:      hub,
		config:   cfg,
		validate: validator.New(),
		logger:   logger,
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(s.cors)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.sendError(w, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/rooms", s.handleCreateRoom)
		r.Post("/rooms/{roomCode}/join", s.handleJoinRoom)
		r.Get("/rooms/{roomCode}", s.handleGetRoom)
		r.Get("/rooms/{roomCode}/exists", s.handleRoomExists)
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
	})

	s.router.Method(http.MethodGet, "/ws", ws.NewHandler(s.hub, s.validate, s.config.Server.ClientOrigin, s.logger))
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// requestLogger logs each request once it has been served
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		event := s.logger.Info()
		if !s.config.IsDevelopment() && isQuietPath(r.URL.Path) {
			event = s.logger.Debug()
		}
		event.
			Str("requestID", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// cors allows the configured browser origin
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.config.Server.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("server starting")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("server shutting down")
	return s.server.Shutdown(ctx)
}

// isQuietPath reports polling endpoints that would flood production logs
func isQuietPath(path string) bool {
	return path == "/api/health" || strings.HasSuffix(path, "/exists")
}
