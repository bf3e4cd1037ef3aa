package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/replyflow-backend/pkg/db/dbtest"
	"github.com/angelmondragon/replyflow-backend/pkg/db/models"
)

func TestLedgerRateLimiterAllowsUpToCeiling(t *testing.T) {
	conn := dbtest.New(t)
	repo := NewRepository(conn)
	limiter, err := NewLedgerRateLimiter(repo, 3, time.Minute)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	ctx := context.Background()
	seed := func(id string, at time.Time) {
		require.NoError(t, repo.Insert(ctx, &models.ProcessedEvent{EventID: id, AccountID: "acct_1", CreatedAt: at}))
	}

	// an old row outside the window never counts
	seed("old", now.Add(-2*time.Minute))
	seed("e1", now.Add(-30*time.Second))
	seed("e2", now.Add(-20*time.Second))
	seed("e3", now.Add(-10*time.Second))

	allowed, err := limiter.Allow(ctx, "acct_1")
	require.NoError(t, err)
	assert.True(t, allowed, "count equal to ceiling is still allowed")

	seed("e4", now.Add(-5*time.Second))
	allowed, err = limiter.Allow(ctx, "acct_1")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = limiter.Allow(ctx, "acct_2")
	require.NoError(t, err)
	assert.True(t, allowed, "other accounts are unaffected")
}

func TestLedgerRateLimiterCountsRejectedEvents(t *testing.T) {
	conn := dbtest.New(t)
	repo := NewRepository(conn)
	limiter, err := NewLedgerRateLimiter(repo, 2, time.Minute)
	require.NoError(t, err)

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()
	seed := func(id string, at time.Time) {
		require.NoError(t, repo.Insert(ctx, &models.ProcessedEvent{EventID: id, AccountID: "acct_1", CreatedAt: at}))
	}

	seed("e1", start.Add(-50*time.Second))
	seed("e2", start.Add(-40*time.Second))
	seed("e3", start.Add(-30*time.Second))
	limiter.now = func() time.Time { return start.Add(-30 * time.Second) }
	allowed, err := limiter.Allow(ctx, "acct_1")
	require.NoError(t, err)
	require.False(t, allowed)

	// e1 has left the window; e3 was rejected but its row still counts
	seed("e4", start.Add(15*time.Second))
	limiter.now = func() time.Time { return start.Add(15 * time.Second) }
	allowed, err = limiter.Allow(ctx, "acct_1")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestLedgerRateLimiterUsesTrailingWindow(t *testing.T) {
	repo := &fakeRepository{count: 1}
	limiter, err := NewLedgerRateLimiter(repo, 0, 0)
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	_, err = limiter.Allow(context.Background(), "acct_1")
	require.NoError(t, err)
	assert.True(t, repo.since.Equal(now.Add(-DefaultWindow)))
	assert.Equal(t, int64(DefaultCeiling), limiter.ceiling)
}

func TestLedgerRateLimiterPropagatesErrors(t *testing.T) {
	limiter, err := NewLedgerRateLimiter(&fakeRepository{countErr: errors.New("boom")}, 10, time.Minute)
	require.NoError(t, err)

	allowed, err := limiter.Allow(context.Background(), "acct_1")
	assert.Error(t, err)
	assert.False(t, allowed)
}

func TestRedisRateLimiterScopesByAccount(t *testing.T) {
	window := &fakeWindow{allowed: true}
	limiter, err := NewRedisRateLimiter(window, 600, time.Minute)
	require.NoError(t, err)

	allowed, err := limiter.Allow(context.Background(), "acct_9")
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, "account:acct_9", window.scope)
	assert.Equal(t, int64(600), window.limit)
	assert.Equal(t, time.Minute, window.window)
}

func TestRedisRateLimiterErrors(t *testing.T) {
	_, err := NewRedisRateLimiter(nil, 1, time.Second)
	assert.Error(t, err)

	limiter, err := NewRedisRateLimiter(&fakeWindow{err: errors.New("down")}, 1, time.Second)
	require.NoError(t, err)
	_, err = limiter.Allow(context.Background(), "acct_1")
	assert.Error(t, err)
}

type fakeWindow struct {
	allowed bool
	err     error
	scope   string
	limit   int64
	window  time.Duration
}

func (f *fakeWindow) FixedWindowAllow(_ context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	f.scope, f.limit, f.window = scope, limit, window
	return f.allowed, 1, f.err
}
