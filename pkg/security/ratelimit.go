package security

import (
	"context"
	"time"
)

// RateLimiter is a sliding-window request counter keyed by client identity.
type RateLimiter struct {
	ledger Ledger
	now    func() time.Time
}

func NewRateLimiter(ledger Ledger) *RateLimiter {
	return &RateLimiter{ledger: ledger, now: time.Now}
}

// Allow accepts the request iff fewer than limit requests from key were
// accepted within the trailing window, recording it when accepted.
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return false, nil
	}
	ok, _, err := r.ledger.TryAppend(ctx, "rate:"+key, r.now(), window, limit)
	return ok, err
}

// Remaining is how many more requests key may make in the current window.
func (r *RateLimiter) Remaining(ctx context.Context, key string, limit int, window time.Duration) (int, error) {
	entries, err := r.ledger.Entries(ctx, "rate:"+key, r.now(), window)
	if err != nil {
		return 0, err
	}
	if n := limit - len(entries); n > 0 {
		return n, nil
	}
	return 0, nil
}

// RetryAfter is the time until the oldest entry for key leaves the window.
func (r *RateLimiter) RetryAfter(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	now := r.now()
	entries, err := r.ledger.Entries(ctx, "rate:"+key, now, window)
	if err != nil || len(entries) == 0 {
		return 0, err
	}
	return entries[0].Add(window).Sub(now), nil
}
