// Package api exposes the reading tracker over HTTP: huma operations on a
// chi router, plus the change stream.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/readingnook/readingnook-server/internal/app"
	"github.com/readingnook/readingnook-server/internal/ratelimit"
	"github.com/readingnook/readingnook-server/internal/sse"
	"github.com/readingnook/readingnook-server/internal/store"
	"github.com/readingnook/readingnook-server/internal/validation"
)

const (
	apiTitle      = "Reading Nook API"
	catalogPrefix = "/api/v1/catalog/"
)

// Options configures the HTTP surface.
type Options struct {
	Version        string
	AllowedOrigins []string
	CatalogRPS     float64
	CatalogBurst   int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	state          *app.State
	kv             store.KV
	router         *chi.Mux
	api            huma.API
	validator      *validation.Validator
	catalogLimiter *ratelimit.KeyedRateLimiter
	logger         *slog.Logger
}

// NewServer creates the router with every route registered.
func NewServer(state *app.State, kv store.KV, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.CatalogRPS <= 0 {
		opts.CatalogRPS = 5
	}
	if opts.CatalogBurst <= 0 {
		opts.CatalogBurst = 10
	}

	s := &Server{
		state:          state,
		kv:             kv,
		router:         chi.NewRouter(),
		validator:      validation.New(),
		catalogLimiter: ratelimit.New(opts.CatalogRPS, opts.CatalogBurst),
		logger:         logger,
	}

	// chi requires middleware before any route, and humachi.New registers the docs routes.
	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig(apiTitle, opts.Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerCatalogRoutes()
	s.registerBookRoutes()
	s.registerPaletteRoutes()

	if state.Events != nil {
		s.router.Get("/api/v1/events", sse.NewHandler(state.Events, logger.With("component", "sse")).ServeHTTP)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, for OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.catalogLimiter.Stop()
}

func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(onlyUnder(catalogPrefix, s.catalogLimiter.Middleware(http.HandlerFunc(writeRateLimited))))
}

// onlyUnder applies mw to requests whose path starts with prefix.
func onlyUnder(prefix string, mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, prefix) {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
