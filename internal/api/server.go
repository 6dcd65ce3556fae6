package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/quizfiesta/funnel-api/internal/audiocache"
	"github.com/quizfiesta/funnel-api/internal/config"
	"github.com/quizfiesta/funnel-api/internal/ratelimit"
	"github.com/quizfiesta/funnel-api/internal/service/funnel"
	"github.com/quizfiesta/funnel-api/internal/service/order"
)

// Server represents the API server.
type Server struct {
	config   config.ServerConfig
	handler  http.Handler
	handlers *Handlers
	server   *http.Server
	router   *chi.Mux
}

// NewServer creates a new API server. audio and redisClient may be nil;
// the audio endpoints then answer 503 and health checks skip the Redis
// probe.
func NewServer(
	cfg *config.Config,
	funnelSvc *funnel.Service,
	orderSvc *order.Service,
	limiter ratelimit.Limiter,
	audio audiocache.Cache,
	db *sql.DB,
	redisClient *redis.Client,
) *Server {
	handlers := NewHandlers(cfg, funnelSvc, orderSvc, limiter, audio, db, redisClient)
	router := SetupRoutes(handlers)

	return &Server{
		config:   cfg.Server,
		handler:  router,
		handlers: handlers,
		router:   router,
	}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.handler
}
