package identity

import "context"

// Limiter is the subset of ratelimit.Limiter used to throttle sign-in.
type Limiter interface {
	Allow(key string) bool
	Reset(key string)
}

type throttled struct {
	Provider
	limiter Limiter
}

// Throttle limits sign-in attempts per email address. Attempts beyond the
// limiter's allowance fail with ErrTooManyRequests without reaching the
// provider; a successful sign-in restores the full allowance.
func Throttle(p Provider, l Limiter) Provider {
	if l == nil {
		return p
	}
	return &throttled{Provider: p, limiter: l}
}

func (t *throttled) SignIn(ctx context.Context, email, password string) (*User, string, error) {
	key := NormalizeEmail(email)
	if !t.limiter.Allow(key) {
		return nil, "", ErrTooManyRequests
	}
	u, token, err := t.Provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	t.limiter.Reset(key)
	return u, token, nil
}
