package security

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrTooManyAttempts = errors.New("too many login attempts")

// LockoutError is returned by CheckLoginAllowed while a client is locked out.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("%s, retry in %s", ErrTooManyAttempts, e.RetryAfter.Round(time.Second))
}

func (e *LockoutError) Is(target error) bool {
	return target == ErrTooManyAttempts
}

// LoginGuard throttles failed login attempts per client identity.
type LoginGuard struct {
	ledger      Ledger
	maxAttempts int
	lockout     time.Duration
	now         func() time.Time
}

func NewLoginGuard(ledger Ledger, maxAttempts int, lockout time.Duration) *LoginGuard {
	return &LoginGuard{ledger: ledger, maxAttempts: maxAttempts, lockout: lockout, now: time.Now}
}

func loginKey(clientID string) string {
	return "login:" + clientID
}

// CheckLoginAllowed returns a *LockoutError when clientID has maxAttempts or
// more failures inside the lockout window.
func (g *LoginGuard) CheckLoginAllowed(ctx context.Context, clientID string) error {
	now := g.now()
	failures, err := g.ledger.Entries(ctx, loginKey(clientID), now, g.lockout)
	if err != nil {
		return err
	}
	if len(failures) < g.maxAttempts {
		return nil
	}
	// The lock lifts once enough of the oldest failures age out.
	idx := len(failures) - g.maxAttempts
	return &LockoutError{RetryAfter: failures[idx].Add(g.lockout).Sub(now)}
}

// RecordLoginAttempt clears the failure history on success and appends a
// failure otherwise.
func (g *LoginGuard) RecordLoginAttempt(ctx context.Context, clientID string, success bool) error {
	if success {
		return g.ledger.Clear(ctx, loginKey(clientID))
	}
	return g.ledger.Append(ctx, loginKey(clientID), g.now(), g.lockout)
}
