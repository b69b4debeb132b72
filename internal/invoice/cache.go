package invoice

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-invoice/internal/obs"
)

// PDFCache keeps rendered invoices in Redis so repeated downloads skip the
// render pool. A nil cache or nil client disables caching.
type PDFCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPDFCache constructs a cache helper. It returns nil when client is nil or
// ttl is not positive.
func NewPDFCache(client *redis.Client, ttl time.Duration) *PDFCache {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &PDFCache{client: client, ttl: ttl}
}

func pdfKey(userID, id string) string {
	return "invoice:pdf:" + userID + ":" + id
}

// Get returns the cached document body for the user's invoice.
func (c *PDFCache) Get(ctx context.Context, userID, id string) ([]byte, bool) {
	if c == nil || c.client == nil || userID == "" || id == "" {
		return nil, false
	}
	data, err := c.client.Get(ctx, pdfKey(userID, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			countCache("miss")
		} else {
			countCache("error")
		}
		return nil, false
	}
	countCache("hit")
	return data, true
}

// Set stores body with the configured TTL.
func (c *PDFCache) Set(ctx context.Context, userID, id string, body []byte) error {
	if c == nil || c.client == nil || userID == "" || id == "" || len(body) == 0 {
		return nil
	}
	return c.client.Set(ctx, pdfKey(userID, id), body, c.ttl).Err()
}

func countCache(result string) {
	if obs.PDFCacheTotal != nil {
		obs.PDFCacheTotal.WithLabelValues(result).Inc()
	}
}
