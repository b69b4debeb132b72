package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Deps probes the service's PostgreSQL pool and optional Redis client.
type Deps struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

// PingDB pings PostgreSQL within timeout.
func (d Deps) PingDB(ctx context.Context, timeout time.Duration) error {
	if d.DB == nil {
		return ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.DB.Ping(ctx)
}

// PingRedis pings Redis within timeout. A nil client reports ErrDisabled.
func (d Deps) PingRedis(ctx context.Context, timeout time.Duration) error {
	if d.Redis == nil {
		return ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.Redis.Ping(ctx).Err()
}
