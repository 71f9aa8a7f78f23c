package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nikhilbhutani/ytsummary/internal/api/handlers"
	"github.com/nikhilbhutani/ytsummary/internal/api/middleware"
	"github.com/nikhilbhutani/ytsummary/internal/auth"
	"github.com/nikhilbhutani/ytsummary/internal/config"
	"github.com/nikhilbhutani/ytsummary/internal/metrics"
)

type Router struct {
	mux     *chi.Mux
	cfg     *config.Config
	svc     handlers.Summarizer
	metrics *metrics.Metrics
	limiter *middleware.RateLimiter
	jwt     *auth.JWTMiddleware
}

func NewRouter(cfg *config.Config, svc handlers.Summarizer, m *metrics.Metrics) *Router {
	rt := &Router{
		mux:     chi.NewRouter(),
		cfg:     cfg,
		svc:     svc,
		metrics: m,
	}
	if cfg.RateLimit.RPS > 0 {
		rt.limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, m)
	}
	if cfg.Auth.JWTSecret != "" {
		rt.jwt = auth.NewJWTMiddleware(cfg.Auth.JWTSecret)
	}
	return rt
}

// Limiter returns the per-client rate limiter, or nil when rate limiting is off.
func (rt *Router) Limiter() *middleware.RateLimiter { return rt.limiter }

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(rt.cfg.Server.CORSOrigins))

	health := handlers.NewHealthHandler(rt.cfg.Inference.Provider, rt.metrics)
	r.Get("/healthz", health.Healthz)
	r.Get("/metrics", health.Metrics)

	summaryH := handlers.NewSummaryHandler(rt.svc)
	r.Group(func(r chi.Router) {
		if rt.limiter != nil {
			r.Use(rt.limiter.Limit)
		}
		if rt.jwt != nil {
			r.Use(rt.jwt.Authenticate)
		}
		r.Get("/summary", summaryH.Get)
		r.Get("/summary/", summaryH.Get)
	})

	return r
}
