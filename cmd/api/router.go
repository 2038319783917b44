package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/allevo/cloud-store/internal/config"
	"github.com/allevo/cloud-store/internal/handler"
	"github.com/allevo/cloud-store/internal/metrics"
	"github.com/allevo/cloud-store/internal/middleware"
)

// routerDeps collects everything the router mounts.
type routerDeps struct {
	cfg            *config.Config
	logger         *slog.Logger
	recorder       metrics.Recorder
	metricsHandler http.Handler
	health         *handler.HealthHandler
	auth           *handler.AuthHandler
	products       *handler.ProductHandler
	carts          *handler.CartHandler
	verifier       middleware.TokenVerifier
	loginLimiter   middleware.Limiter
	catalogLimiter middleware.Limiter
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.logger))
	r.Use(middleware.Recoverer(d.logger))
	r.Use(middleware.Metrics(d.recorder))
	r.Use(middleware.Security(middleware.SecurityConfig{HSTS: d.cfg.IsProduction()}))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig(d.cfg.GetCORSAllowedOrigins())))
	r.Use(middleware.MaxBodySize(d.cfg.MaxRequestBodySize))

	// Health and metrics
	r.Get("/healthz", d.health.Healthz)
	r.Get("/readyz", d.health.Readyz)
	if d.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.metricsHandler)
	}

	r.With(middleware.RateLimit(middleware.RateLimitConfig{
		Logger:  d.logger,
		Limiter: d.loginLimiter,
		Scope:   "login",
	})).Post("/auth/login", d.auth.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Logger:  d.logger,
			Limiter: d.catalogLimiter,
			Scope:   "catalog",
		}))
		r.Get("/products", d.products.List)
		r.Get("/products/categories", d.products.Categories)
	})

	r.Route("/users/{username}", func(r chi.Router) {
		r.Use(middleware.Auth(middleware.AuthConfig{
			Logger:   d.logger,
			Verifier: d.verifier,
		}))
		r.Get("/cart", d.carts.Get)
		r.Put("/cart/products", d.carts.AddProduct)
	})

	r.NotFound(handler.NotFound)
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
