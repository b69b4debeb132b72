package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Window is a sliding-window limiter backed by a Redis sorted set per key.
// Rejected events are removed again so that a client hammering the endpoint
// does not extend its own lockout.
type Window struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

func (l Window) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Allow records an event for key and reports whether it fits in the window.
// reset is when the oldest counted event leaves the window.
func (l Window) Allow(ctx context.Context, key string, window time.Duration, max int) (allowed bool, remaining int, reset time.Time, err error) {
	now := l.now()
	if l.Client == nil || max <= 0 || window <= 0 {
		return true, max, now.Add(window), nil
	}

	redisKey := l.Prefix + key
	member := key + ":" + uuid.NewString()
	cutoff := strconv.FormatInt(now.Add(-window).UnixNano(), 10)

	pipe := l.Client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "-inf", "("+cutoff)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	countCmd := pipe.ZCard(ctx, redisKey)
	oldestCmd := pipe.ZRangeWithScores(ctx, redisKey, 0, 0)
	pipe.PExpire(ctx, redisKey, window)
	if _, err = pipe.Exec(ctx); err != nil {
		return false, 0, now.Add(window), fmt.Errorf("rate limit %s: %w", key, err)
	}

	reset = now.Add(window)
	if oldest := oldestCmd.Val(); len(oldest) > 0 {
		reset = time.Unix(0, int64(oldest[0].Score)).Add(window)
	}

	current := int(countCmd.Val())
	if current > max {
		if err = l.Client.ZRem(ctx, redisKey, member).Err(); err != nil {
			return false, 0, reset, fmt.Errorf("rate limit %s: %w", key, err)
		}
		return false, 0, reset, nil
	}
	return true, max - current, reset, nil
}
