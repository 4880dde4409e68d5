// Package server provides the HTTP server and routing.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/CR-00/tree/internal/config"
	"github.com/CR-00/tree/internal/database"
	"github.com/CR-00/tree/internal/events"
	analysishandlers "github.com/CR-00/tree/internal/modules/analysis/handlers"
	profilehandlers "github.com/CR-00/tree/internal/modules/profiles/handlers"
	spothandlers "github.com/CR-00/tree/internal/modules/spots/handlers"
)

// Config holds server configuration.
type Config struct {
	Log     zerolog.Logger
	SpotsDB *database.DB
	CacheDB *database.DB
	Config  *config.Config
	Port    int
	DevMode bool

	Bus              *events.Bus
	SpotHandlers     *spothandlers.Handler
	ProfileHandlers  *profilehandlers.Handler
	AnalysisHandlers *analysishandlers.Handler
	SystemHandlers   *SystemHandlers
}

// Server is the HTTP server.
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	spotsDB        *database.DB
	cacheDB        *database.DB
	cfg            *config.Config
	systemHandlers *SystemHandlers
	streamHandler  *EventsStreamHandler
}

// New creates a new HTTP server with all routes mounted.
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		spotsDB:        cfg.SpotsDB,
		cacheDB:        cfg.CacheDB,
		cfg:            cfg.Config,
		systemHandlers: cfg.SystemHandlers,
		streamHandler:  NewEventsStreamHandler(cfg.Bus, cfg.Log),
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/health", s.handleHealth)

	// The WebSocket stream bypasses the request timeout; everything else
	// gets one.
	s.router.Get("/api/events/ws", s.streamHandler.ServeHTTP)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		cfg.SpotHandlers.RegisterRoutes(r)
		cfg.ProfileHandlers.RegisterRoutes(r)
		cfg.AnalysisHandlers.RegisterRoutes(r)
		s.systemHandlers.RegisterRoutes(r)
	})
}

// Start begins listening for HTTP requests. It blocks until the server
// stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "tree",
	}, s.log)
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
