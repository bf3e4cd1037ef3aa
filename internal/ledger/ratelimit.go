package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/replyflow-backend/pkg/redis"
)

const (
	DefaultCeiling = 600
	DefaultWindow  = time.Minute
)

// RateLimiter decides whether an admitted event may be processed further.
type RateLimiter interface {
	Allow(ctx context.Context, accountID string) (bool, error)
}

// LedgerRateLimiter counts the account's ledger rows in the trailing window.
// The count includes the event just admitted, and concurrent admissions near
// the ceiling can all observe the same count.
type LedgerRateLimiter struct {
	repo    Repository
	ceiling int64
	window  time.Duration
	now     func() time.Time
}

// NewLedgerRateLimiter builds the count-based limiter. Non-positive values
// fall back to 600 per minute.
func NewLedgerRateLimiter(repo Repository, ceiling int, window time.Duration) (*LedgerRateLimiter, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &LedgerRateLimiter{repo: repo, ceiling: int64(ceiling), window: window, now: time.Now}, nil
}

func (l *LedgerRateLimiter) Allow(ctx context.Context, accountID string) (bool, error) {
	since := l.now().UTC().Add(-l.window)
	count, err := l.repo.CountSince(ctx, accountID, since)
	if err != nil {
		return false, fmt.Errorf("count processed events: %w", err)
	}
	return count <= l.ceiling, nil
}

// RedisRateLimiter is a fixed-window counter per account kept in Redis.
type RedisRateLimiter struct {
	limiter redis.WindowLimiter
	ceiling int64
	window  time.Duration
}

func NewRedisRateLimiter(limiter redis.WindowLimiter, ceiling int, window time.Duration) (*RedisRateLimiter, error) {
	if limiter == nil {
		return nil, fmt.Errorf("redis limiter required")
	}
	if ceiling <= 0 {
		ceiling = DefaultCeiling
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &RedisRateLimiter{limiter: limiter, ceiling: int64(ceiling), window: window}, nil
}

func (r *RedisRateLimiter) Allow(ctx context.Context, accountID string) (bool, error) {
	allowed, _, err := r.limiter.FixedWindowAllow(ctx, "account:"+accountID, r.ceiling, r.window)
	if err != nil {
		return false, fmt.Errorf("redis rate limit: %w", err)
	}
	return allowed, nil
}
