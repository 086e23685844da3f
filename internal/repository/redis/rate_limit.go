package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	red "github.com/redis/go-redis/v9"
)

// RateLimitRepository tracks request attempts in Redis sorted sets for
// sliding-window rate limiting.
type RateLimitRepository struct {
	client *red.Client
	prefix string
	ttl    time.Duration
}

// NewRateLimitRepository constructs a repository using the provided client,
// key prefix, and retention TTL for attempt sets.
func NewRateLimitRepository(client *red.Client, keyPrefix string, ttl time.Duration) *RateLimitRepository {
	if keyPrefix == "" {
		keyPrefix = "rate-limit"
	}
	return &RateLimitRepository{client: client, prefix: keyPrefix, ttl: ttl}
}

// Allow records an attempt for the identifier and reports whether the count
// inside the window, including this attempt, stays within the limit.
func (r *RateLimitRepository) Allow(ctx context.Context, identifier string, limit int, window time.Duration, at time.Time) (bool, error) {
	if identifier == "" {
		return false, errors.New("identifier is required")
	}
	if limit <= 0 || window <= 0 {
		return false, errors.New("limit and window must be positive")
	}

	key := fmt.Sprintf("%s:%s", r.prefix, identifier)
	threshold := strconv.FormatInt(at.Add(-window).UnixNano(), 10)

	// Members carry a uuid suffix so attempts sharing a timestamp stay
	// distinct set entries.
	member := fmt.Sprintf("%d-%s", at.UnixNano(), uuid.NewString())

	pipe := r.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", threshold)
	pipe.ZAdd(ctx, key, red.Z{Score: float64(at.UnixNano()), Member: member})
	count := pipe.ZCard(ctx, key)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}

	return count.Val() <= int64(limit), nil
}
