package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-invoice/internal/auth"
	"github.com/noah-isme/backend-invoice/internal/common"
	"github.com/noah-isme/backend-invoice/internal/config"
	"github.com/noah-isme/backend-invoice/internal/health"
	"github.com/noah-isme/backend-invoice/internal/invoice"
	"github.com/noah-isme/backend-invoice/internal/obs"
	"github.com/noah-isme/backend-invoice/internal/ratelimit"
	"github.com/noah-isme/backend-invoice/internal/security"
)

type server struct {
	cfg      *config.Config
	logger   zerolog.Logger
	auth     *auth.Service
	invoices *invoice.Service
	redis    *redis.Client
	metrics  *obs.HTTPMetrics
	tracing  bool
	health   health.Handler
}

func (s *server) routes() (http.Handler, error) {
	authLimit, err := ratelimit.NewIPMiddleware(s.cfg.AuthRateLimit, s.redis, "ratelimit:auth")
	if err != nil {
		return nil, err
	}
	generateLimit := ratelimit.Handler{
		Limiter: ratelimit.Window{Client: s.redis, Prefix: "ratelimit:"},
		Config: ratelimit.Config{
			Key:    ratelimit.UserKey("generate"),
			Window: s.cfg.GenerateRateWindow,
			Max:    s.cfg.GenerateRateLimitMax,
		},
		OnError: func(err error) {
			s.logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}
	idem := common.Idem{R: s.redis, TTL: s.cfg.IdempotencyTTL}

	authHandler := &auth.Handler{Service: s.auth}
	authMiddleware := auth.Middleware{Service: s.auth}
	invoiceHandler := &invoice.Handler{Svc: s.invoices}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(security.RealIP{Trusted: s.cfg.TrustedProxies}.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if s.metrics != nil {
		r.Use(obs.HTTPObs{Metrics: s.metrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: s.logger}.Middleware)
	r.Use(security.Headers{Enable: true, EnableHSTS: s.cfg.AppEnv == "production"}.Middleware)
	r.Use(security.BodyLimit{Max: s.cfg.BodyLimitBytes}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(s.cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Invoice-ID", "X-Total-Count", "Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if s.metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}
	r.Get("/health/live", s.health.Live)
	r.Get("/health/ready", s.health.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/auth", func(a chi.Router) {
			a.With(authLimit).Post("/register", authHandler.Register)
			a.With(authLimit).Post("/login", authHandler.Login)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Route("/invoices", func(in chi.Router) {
			in.Use(authMiddleware.RequireAuth)
			in.Use(obs.ContextLogger(s.logger))
			in.Get("/", invoiceHandler.List)
			in.With(generateLimit.Middleware, idem.Middleware).Post("/generate-pdf", invoiceHandler.Generate)
			in.Get("/{id}", invoiceHandler.Get)
			in.Get("/{id}/pdf", invoiceHandler.PDF)
		})
	})

	if !s.tracing {
		return r, nil
	}
	return otelhttp.NewHandler(r, "http.server"), nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
