// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"time"

	"jury-service/internal/common/config"
	"jury-service/internal/common/logger"
)

// Deny reasons reported in Result.Reason.
const (
	ReasonRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ReasonClientBlocked     = "CLIENT_BLOCKED"
	ReasonDenyListed        = "DENY_LISTED"
)

// Entry is the fixed-window state held per (client, endpoint) key.
type Entry struct {
	Count       int       `json:"count"`
	WindowReset time.Time `json:"windowReset"`
	Blocked     bool      `json:"blocked"`
	BlockUntil  time.Time `json:"blockUntil,omitempty"`
}

// Store holds rate-limit entries. The in-process map store covers
// single-instance deployments; the redis store externalizes the
// counters so limits hold across instances.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Result is the outcome of one rate-limit check.
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
	Reason     string
}

// Limiter enforces fixed-window request budgets per (client, endpoint)
// key, with escalation to a temporary block for clients that keep
// hammering past the limit.
type Limiter struct {
	store  Store
	cfg    config.RateLimitConfig
	deny   map[string]struct{}
	logger logger.Logger

	// now is injectable for tests.
	now func() time.Time
}

func NewLimiter(store Store, cfg config.RateLimitConfig, log logger.Logger) *Limiter {
	deny := make(map[string]struct{}, len(cfg.DenyList))
	for _, id := range cfg.DenyList {
		deny[id] = struct{}{}
	}
	return &Limiter{
		store:  store,
		cfg:    cfg,
		deny:   deny,
		logger: log.WithFields(map[string]interface{}{"component": "rate-limiter"}),
		now:    time.Now,
	}
}

// rule returns the endpoint override when one exists, else the global
// default.
func (l *Limiter) rule(endpoint string) config.RateLimitRule {
	if r, ok := l.cfg.Endpoints[endpoint]; ok {
		return r
	}
	return l.cfg.Default
}

// Check decides whether the request may proceed and updates the
// window state. Deny-listed clients bypass window logic entirely.
func (l *Limiter) Check(ctx context.Context, clientID, endpoint string) (*Result, error) {
	if _, denied := l.deny[clientID]; denied {
		return &Result{Allowed: false, Reason: ReasonDenyListed}, nil
	}

	now := l.now()
	rule := l.rule(endpoint)
	key := clientID + ":" + endpoint

	entry, err := l.store.Get(ctx, key)
	if err != nil {
		// A broken store must not take the service down with it; let
		// the request through and log.
		l.logger.Error("rate limit store read failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
		return &Result{Allowed: true, Remaining: rule.MaxRequests}, nil
	}

	if entry != nil && entry.Blocked {
		if now.Before(entry.BlockUntil) {
			return &Result{
				Allowed:    false,
				ResetAt:    entry.BlockUntil,
				RetryAfter: entry.BlockUntil.Sub(now),
				Reason:     ReasonClientBlocked,
			}, nil
		}
		// Block expired: start over with a clean window.
		entry = nil
	}

	if entry == nil || now.After(entry.WindowReset) {
		entry = &Entry{
			Count:       1,
			WindowReset: now.Add(rule.Window()),
		}
		l.save(ctx, key, entry, rule)
		return &Result{
			Allowed:   true,
			Remaining: rule.MaxRequests - 1,
			ResetAt:   entry.WindowReset,
		}, nil
	}

	entry.Count++

	if entry.Count > rule.MaxRequests {
		violations := entry.Count - rule.MaxRequests

		// Repeated violation escalates to a temporary block that
		// outlives window resets.
		if violations >= l.cfg.BlockAfter {
			entry.Blocked = true
			entry.BlockUntil = now.Add(l.cfg.BlockDuration())
			l.save(ctx, key, entry, rule)
			l.logger.Warn("client blocked", map[string]interface{}{
				"clientId":   clientID,
				"endpoint":   endpoint,
				"blockUntil": entry.BlockUntil,
			})
			return &Result{
				Allowed:    false,
				ResetAt:    entry.BlockUntil,
				RetryAfter: entry.BlockUntil.Sub(now),
				Reason:     ReasonClientBlocked,
			}, nil
		}

		l.save(ctx, key, entry, rule)
		return &Result{
			Allowed:    false,
			ResetAt:    entry.WindowReset,
			RetryAfter: entry.WindowReset.Sub(now),
			Reason:     ReasonRateLimitExceeded,
		}, nil
	}

	l.save(ctx, key, entry, rule)
	return &Result{
		Allowed:   true,
		Remaining: rule.MaxRequests - entry.Count,
		ResetAt:   entry.WindowReset,
	}, nil
}

// Reset clears the state for one (client, endpoint) key.
func (l *Limiter) Reset(ctx context.Context, clientID, endpoint string) error {
	return l.store.Delete(ctx, clientID+":"+endpoint)
}

func (l *Limiter) save(ctx context.Context, key string, entry *Entry, rule config.RateLimitRule) {
	ttl := rule.Window()
	if entry.Blocked {
		ttl = l.cfg.BlockDuration()
	}
	// Keep entries around slightly past expiry so a just-reset window
	// is still observable.
	if err := l.store.Set(ctx, key, entry, ttl+time.Minute); err != nil {
		l.logger.Error("rate limit store write failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}
}
