// internal/ratelimit/limiter_test.go
package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"jury-service/internal/common/config"
	"jury-service/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

func testRateLimitConfig() config.RateLimitConfig {
	return config.RateLimitConfig{
		Default: config.RateLimitRule{
			WindowMs:    60000,
			MaxRequests: 3,
		},
		Endpoints: map[string]config.RateLimitRule{
			"/api/applications": {WindowMs: 60000, MaxRequests: 2},
		},
		BlockDurationMs: 3600000,
		BlockAfter:      3,
	}
}

func newTestLimiter(cfg config.RateLimitConfig) (*Limiter, *time.Time) {
	l := NewLimiter(NewMemoryStore(), cfg, logger.NewNoOpLogger())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

// ==========================
// Fixed Window Behaviour
// ==========================

func TestCheck_AllowsUpToLimitThenDenies(t *testing.T) {
	l, _ := newTestLimiter(testRateLimitConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Check(ctx, "1.2.3.4", "/api/summary")
		assert.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should pass", i+1)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := l.Check(ctx, "1.2.3.4", "/api/summary")
	assert.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, ReasonRateLimitExceeded, res.Reason)
	assert.Greater(t, res.RetryAfter, time.Duration(0))
}

func TestCheck_WindowResetRestoresService(t *testing.T) {
	l, now := newTestLimiter(testRateLimitConfig())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		l.Check(ctx, "1.2.3.4", "/api/summary")
	}

	*now = now.Add(61 * time.Second)

	res, err := l.Check(ctx, "1.2.3.4", "/api/summary")
	assert.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}

func TestCheck_IndependentClientsAndEndpoints(t *testing.T) {
	l, _ := newTestLimiter(testRateLimitConfig())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		l.Check(ctx, "1.2.3.4", "/api/summary")
	}

	res, _ := l.Check(ctx, "5.6.7.8", "/api/summary")
	assert.True(t, res.Allowed, "other client must not be affected")

	res, _ = l.Check(ctx, "1.2.3.4", "/api/other")
	assert.True(t, res.Allowed, "other endpoint must not be affected")
}

func TestCheck_EndpointOverrideApplies(t *testing.T) {
	l, _ := newTestLimiter(testRateLimitConfig())
	ctx := context.Background()

	res, _ := l.Check(ctx, "1.2.3.4", "/api/applications")
	assert.True(t, res.Allowed)
	assert.Equal(t, 1, res.Remaining)

	l.Check(ctx, "1.2.3.4", "/api/applications")
	res, _ = l.Check(ctx, "1.2.3.4", "/api/applications")
	assert.False(t, res.Allowed)
}

// ==========================
// Escalation and Deny List
// ==========================

func TestCheck_RepeatedViolationsEscalateToBlock(t *testing.T) {
	l, now := newTestLimiter(testRateLimitConfig())
	ctx := context.Background()

	// Exhaust the window, then keep hammering until the escalation
	// threshold trips.
	var res *Result
	for i := 0; i < 6; i++ {
		res, _ = l.Check(ctx, "1.2.3.4", "/api/summary")
	}
	assert.False(t, res.Allowed)
	assert.Equal(t, ReasonClientBlocked, res.Reason)

	// A window reset no longer helps a blocked client.
	*now = now.Add(2 * time.Minute)
	res, _ = l.Check(ctx, "1.2.3.4", "/api/summary")
	assert.False(t, res.Allowed)
	assert.Equal(t, ReasonClientBlocked, res.Reason)

	// The block itself expires.
	*now = now.Add(61 * time.Minute)
	res, _ = l.Check(ctx, "1.2.3.4", "/api/summary")
	assert.True(t, res.Allowed)
}

func TestCheck_DenyListedClientAlwaysRefused(t *testing.T) {
	cfg := testRateLimitConfig()
	cfg.DenyList = []string{"9.9.9.9"}
	l, _ := newTestLimiter(cfg)

	res, err := l.Check(context.Background(), "9.9.9.9", "/api/summary")
	assert.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, ReasonDenyListed, res.Reason)
}

// ==========================
// Store Failure Handling
// ==========================

type failingStore struct{}

func (failingStore) Get(context.Context, string) (*Entry, error) {
	return nil, assert.AnError
}
func (failingStore) Set(context.Context, string, *Entry, time.Duration) error {
	return assert.AnError
}
func (failingStore) Delete(context.Context, string) error {
	return assert.AnError
}

func TestCheck_FailsOpenOnStoreError(t *testing.T) {
	l := NewLimiter(failingStore{}, testRateLimitConfig(), logger.NewNoOpLogger())

	res, err := l.Check(context.Background(), "1.2.3.4", "/api/summary")
	assert.NoError(t, err)
	assert.True(t, res.Allowed)
}

// ==========================
// Reset
// ==========================

func TestReset_ClearsClientState(t *testing.T) {
	l, _ := newTestLimiter(testRateLimitConfig())
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		l.Check(ctx, "1.2.3.4", "/api/summary")
	}

	assert.NoError(t, l.Reset(ctx, "1.2.3.4", "/api/summary"))

	res, _ := l.Check(ctx, "1.2.3.4", "/api/summary")
	assert.True(t, res.Allowed)
	assert.Equal(t, 2, res.Remaining)
}
