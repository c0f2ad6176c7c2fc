package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/vigil/internal/api/v1"
	"github.com/gosuda/vigil/internal/api/ws"
	"github.com/gosuda/vigil/internal/config"
	"github.com/gosuda/vigil/internal/server/middleware"
	redisstore "github.com/gosuda/vigil/internal/store/redis"
)

// Server is the HTTP server that exposes the mirrored session state and the
// reconciliation controls. It is read-mostly: the only mutation it offers is
// triggering a reconcile pass.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	cfg        *config.Config
}

// New creates a Server with all routes wired. pubsub may be nil when Redis
// is not configured; the WebSocket event stream and the freshness field of
// the status endpoint are disabled in that case.
func New(cfg *config.Config, store v1.DataStore, reconciler v1.Reconciler, pubsub *redisstore.Client) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	s := &Server{
		router: router,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	var freshness v1.FreshnessReader
	if pubsub != nil {
		freshness = pubsub
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Server.APIToken))
		r.Use(middleware.RateLimitByIP(context.Background(), 10, 30))

		apiConfig := huma.DefaultConfig("Vigil API", "1.0.0")
		apiConfig.Servers = []*huma.Server{
			{URL: "/api/v1"},
		}
		api := humachi.New(r, apiConfig)
		registerAPIRoutes(api, store, reconciler, freshness)
	})

	// WebSocket event stream, only when Redis is available to bridge from.
	if pubsub != nil {
		hub := ws.NewHub(pubsub)
		router.Route("/ws", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Server.APIToken))
			registerWSRoutes(r, hub)
		})
	} else {
		log.Info().Msg("redis not configured; websocket event stream disabled")
	}

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
