package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coder/websocket"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/taskhub/internal/api/v1"
	"github.com/gosuda/taskhub/internal/api/ws"
	"github.com/gosuda/taskhub/internal/auth"
	"github.com/gosuda/taskhub/internal/config"
	"github.com/gosuda/taskhub/internal/domain"
	"github.com/gosuda/taskhub/internal/events"
	"github.com/gosuda/taskhub/internal/metrics"
	"github.com/gosuda/taskhub/internal/server/middleware"
	"github.com/gosuda/taskhub/internal/service"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Store    domain.Store
	Auth     *auth.Service
	Services *service.Services
	Broker   events.Broker
	Metrics  *metrics.Metrics
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
}

// New creates a Server with all routes wired. ctx bounds the background
// sweepers of the rate limiters.
func New(ctx context.Context, cfg *config.Config, d Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(middleware.Metrics(d.Metrics))
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	hub := ws.NewHub(d.Broker, d.Services.Projects)
	hub.AcceptOptions = &websocket.AcceptOptions{OriginPatterns: originHosts(cfg.Server.CORSOrigins)}

	s := &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Mount API routes on /api with two sub-groups:
	// 1. Public auth endpoints behind a strict per-IP limit.
	// 2. Authenticated endpoints with a per-user limit.
	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, cfg.RateLimit.APIRPS, cfg.RateLimit.APIBurst))

		r.Get("/health", v1.HealthHandler(d.Store))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(ctx, cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst))

			authConfig := apiConfig("taskhub Auth API")
			authConfig.OpenAPIPath = "/auth/openapi"
			authConfig.DocsPath = ""
			authConfig.SchemasPath = ""
			registerPublicRoutes(humachi.New(r, authConfig), d)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			r.Use(middleware.RateLimitByUser(ctx, cfg.RateLimit.APIRPS, cfg.RateLimit.APIBurst))

			registerAPIRoutes(humachi.New(r, apiConfig("taskhub API")), d)
		})
	})

	// Browsers cannot set headers on a WebSocket handshake, so Auth also
	// accepts ?token= here.
	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret))
		registerWSRoutes(r, hub)
	})

	router.Handle("/metrics", d.Metrics.Handler())

	return s
}

func apiConfig(title string) huma.Config {
	c := huma.DefaultConfig(title, "1.0.0")
	c.Servers = []*huma.Server{{URL: "/api"}}
	// Keep response bodies to the {success, data, message} envelope.
	c.CreateHooks = nil
	return c
}

// originHosts turns CORS origins into WebSocket origin patterns.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			hosts = append(hosts, "*")
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			log.Warn().Str("origin", o).Msg("server: ignoring malformed CORS origin for websockets")
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("server: listening")
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
