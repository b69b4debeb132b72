package config

import (
	"errors"
	"fmt"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string
	TrustedProxies     []netip.Prefix
	AccessTokenTTL     time.Duration
	MigrateOnStart     bool

	TaxRate        decimal.Decimal
	CurrencySymbol string
	BrandName      string

	RenderPoolSize int
	RenderTimeout  time.Duration
	RenderCompress bool
	PDFCacheTTL    time.Duration

	RenderFontRegular string
	RenderFontBold    string
	RenderFontItalic  string

	RenderBreakerMinRequests  int
	RenderBreakerFailureRatio float64
	RenderBreakerOpenFor      time.Duration

	IdempotencyTTL       time.Duration
	GenerateRateLimitMax int
	GenerateRateWindow   time.Duration
	AuthRateLimit        string
	BodyLimitBytes       int64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	taxRate, err := parseDecimal(k.String("INVOICE_TAX_RATE"), "0.18")
	if err != nil {
		return nil, fmt.Errorf("INVOICE_TAX_RATE: %w", err)
	}

	trustedProxies, err := parsePrefixes(splitAndTrim(k.String("TRUSTED_PROXIES")))
	if err != nil {
		return nil, fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		TrustedProxies:     trustedProxies,
		AccessTokenTTL:     parseDuration(k.String("ACCESS_TOKEN_TTL"), "1h"),
		MigrateOnStart:     parseBool(k.String("MIGRATE_ON_START")),

		TaxRate:        taxRate,
		CurrencySymbol: valueOrDefault(k.String("INVOICE_CURRENCY_SYMBOL"), "Rs."),
		BrandName:      valueOrDefault(k.String("INVOICE_BRAND_NAME"), "Invoice Generator"),

		RenderPoolSize: parseInt(k.String("RENDER_POOL_SIZE"), 4),
		RenderTimeout:  parseDuration(k.String("RENDER_TIMEOUT"), "10s"),
		RenderCompress: parseBoolDefault(k.String("RENDER_COMPRESS"), true),
		PDFCacheTTL:    parseDuration(k.String("PDF_CACHE_TTL"), "10m"),

		RenderFontRegular: strings.TrimSpace(k.String("RENDER_FONT_REGULAR")),
		RenderFontBold:    strings.TrimSpace(k.String("RENDER_FONT_BOLD")),
		RenderFontItalic:  strings.TrimSpace(k.String("RENDER_FONT_ITALIC")),

		RenderBreakerMinRequests:  parseInt(k.String("RENDER_BREAKER_MIN_REQUESTS"), 5),
		RenderBreakerFailureRatio: parseFloat(k.String("RENDER_BREAKER_FAILURE_RATIO"), 0.5),
		RenderBreakerOpenFor:      parseDuration(k.String("RENDER_BREAKER_OPEN_FOR"), "30s"),

		IdempotencyTTL:       parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		GenerateRateLimitMax: parseInt(k.String("RATE_LIMIT_GENERATE_MAX"), 30),
		GenerateRateWindow:   parseDuration(k.String("RATE_LIMIT_GENERATE_WINDOW"), "1m"),
		AuthRateLimit:        valueOrDefault(k.String("RATE_LIMIT_AUTH"), "20-M"),
		BodyLimitBytes:       int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.TaxRate.IsNegative() {
		return nil, errors.New("INVOICE_TAX_RATE must not be negative")
	}
	if cfg.RenderPoolSize <= 0 {
		cfg.RenderPoolSize = 1
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// parsePrefixes accepts single addresses and CIDR ranges.
func parsePrefixes(values []string) ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(values))
	for _, value := range values {
		if strings.Contains(value, "/") {
			prefix, err := netip.ParsePrefix(value)
			if err != nil {
				return nil, err
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, err
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

func parseDecimal(value, fallback string) (decimal.Decimal, error) {
	return decimal.NewFromString(valueOrDefault(value, fallback))
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
