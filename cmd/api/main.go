package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-invoice/internal/auth"
	"github.com/noah-isme/backend-invoice/internal/config"
	"github.com/noah-isme/backend-invoice/internal/db"
	"github.com/noah-isme/backend-invoice/internal/health"
	"github.com/noah-isme/backend-invoice/internal/invoice"
	"github.com/noah-isme/backend-invoice/internal/obs"
	"github.com/noah-isme/backend-invoice/internal/render"
	"github.com/noah-isme/backend-invoice/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "invoice")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "backend-invoice",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.DatabaseURL); err != nil {
			logger.Fatal().Err(err).Msg("run migrations")
		}
		logger.Info().Msg("migrations applied")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := connectDatabase(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisClient, err := connectRedis(ctx, cfg.RedisURL, metricsEnabled, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect redis")
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	queries := db.New(pool)
	authService, err := auth.NewService(auth.Config{
		Queries:        queries,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}

	fonts, err := render.LoadFonts(cfg.RenderFontRegular, cfg.RenderFontBold, cfg.RenderFontItalic)
	if err != nil {
		logger.Fatal().Err(err).Msg("load render fonts")
	}

	renderer := render.NewPool(render.PDFEngine{
		Brand:          cfg.BrandName,
		CurrencySymbol: cfg.CurrencySymbol,
		Compress:       cfg.RenderCompress,
		Fonts:          fonts,
	}, cfg.RenderPoolSize, cfg.RenderTimeout).WithBreaker(
		resilience.NewBreaker(cfg.RenderBreakerMinRequests, cfg.RenderBreakerFailureRatio, cfg.RenderBreakerOpenFor).
			WithTarget("pdf_engine").
			WithLogger(logger),
	)

	invoices := &invoice.Service{
		Identities: authService,
		Store:      invoice.NewPGStore(pool),
		Renderer:   renderer,
		Calculator: invoice.NewCalculator(cfg.TaxRate),
		Validator:  invoice.NewValidator(),
		Cache:      invoice.NewPDFCache(redisClient, cfg.PDFCacheTTL),
		Logger:     logger,
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	handler, err := (&server{
		cfg:      cfg,
		logger:   logger,
		auth:     authService,
		invoices: invoices,
		redis:    redisClient,
		metrics:  httpMetrics,
		tracing:  tracingEnabled,
		health: health.Handler{
			Checker:      health.Deps{DB: pool, Redis: redisClient},
			DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
			RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
		},
	}).routes()
	if err != nil {
		logger.Fatal().Err(err).Msg("build router")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RenderTimeout + 20*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}

	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), envDurationMillis("SHUTDOWN_TIMEOUT_MS", 15000))
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func connectDatabase(ctx context.Context, url string, logger zerolog.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "backend-invoice"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	ping := func() error { return pool.Ping(ctx) }
	notify := func(err error, wait time.Duration) {
		logger.Warn().Err(err).Dur("retry_in", wait).Msg("database not ready")
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(backoff.NewExponentialBackOff(), ctx), notify); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// connectRedis returns nil when no REDIS_URL is configured; the PDF cache,
// idempotency keys and rate limits then fall back to their no-Redis modes.
func connectRedis(ctx context.Context, url string, metricsEnabled bool, logger zerolog.Logger) (*redis.Client, error) {
	if url == "" {
		logger.Info().Msg("redis disabled")
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	ping := func() error { return client.Ping(ctx).Err() }
	notify := func(err error, wait time.Duration) {
		logger.Warn().Err(err).Dur("retry_in", wait).Msg("redis not ready")
	}
	if err := backoff.RetryNotify(ping, backoff.WithContext(backoff.NewExponentialBackOff(), ctx), notify); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	ms := fallback
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			ms = parsed
		}
	}
	return time.Duration(ms) * time.Millisecond
}
