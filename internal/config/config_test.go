package config

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":            "postgres://localhost/invoices",
		"JWT_SECRET":              "secret",
		"INVOICE_TAX_RATE":        "",
		"INVOICE_CURRENCY_SYMBOL": "",
		"RENDER_POOL_SIZE":        "",
		"RENDER_TIMEOUT":          "",
		"ACCESS_TOKEN_TTL":        "",
		"PORT":                    "",
	})
	require.NoError(t, err)
	require.Equal(t, "0.18", cfg.TaxRate.String())
	require.Equal(t, "Rs.", cfg.CurrencySymbol)
	require.Equal(t, 4, cfg.RenderPoolSize)
	require.Equal(t, 10*time.Second, cfg.RenderTimeout)
	require.Equal(t, time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 5, cfg.RenderBreakerMinRequests)
	require.Equal(t, 0.5, cfg.RenderBreakerFailureRatio)
	require.Equal(t, 30*time.Second, cfg.RenderBreakerOpenFor)
}

func TestLoadRequiresSecrets(t *testing.T) {
	_, err := LoadForTests(map[string]string{"DATABASE_URL": "postgres://localhost/invoices", "JWT_SECRET": ""})
	require.Error(t, err)

	_, err = LoadForTests(map[string]string{"DATABASE_URL": "", "JWT_SECRET": "secret"})
	require.Error(t, err)
}

func TestLoadRejectsBadTaxRate(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL":     "postgres://localhost/invoices",
		"JWT_SECRET":       "secret",
		"INVOICE_TAX_RATE": "eighteen",
	})
	require.Error(t, err)

	_, err = LoadForTests(map[string]string{
		"DATABASE_URL":     "postgres://localhost/invoices",
		"JWT_SECRET":       "secret",
		"INVOICE_TAX_RATE": "-0.1",
	})
	require.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"DATABASE_URL":         "postgres://localhost/invoices",
		"JWT_SECRET":           "secret",
		"INVOICE_TAX_RATE":     "0.05",
		"RENDER_POOL_SIZE":     "0",
		"RENDER_COMPRESS":      "false",
		"CORS_ALLOWED_ORIGINS": "https://a.example, https://b.example",
		"PORT":                 ":9090",
		"RENDER_FONT_REGULAR":  " /fonts/NotoSans-Regular.ttf ",
		"TRUSTED_PROXIES":      "10.0.0.0/8, 192.0.2.7",
	})
	require.NoError(t, err)
	require.Equal(t, "0.05", cfg.TaxRate.String())
	require.Equal(t, 1, cfg.RenderPoolSize)
	require.False(t, cfg.RenderCompress)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, ":9090", cfg.HTTPAddr())
	require.Equal(t, "/fonts/NotoSans-Regular.ttf", cfg.RenderFontRegular)
	require.Empty(t, cfg.RenderFontBold)
	require.Equal(t, []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8"), netip.MustParsePrefix("192.0.2.7/32")}, cfg.TrustedProxies)
}

func TestLoadRejectsBadTrustedProxy(t *testing.T) {
	_, err := LoadForTests(map[string]string{
		"DATABASE_URL":    "postgres://localhost/invoices",
		"JWT_SECRET":      "secret",
		"TRUSTED_PROXIES": "10.0.0.0/33",
	})
	require.Error(t, err)
}
