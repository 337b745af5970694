package identity

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/clouddwh/architect/internal/notify"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultResetTTL is how long a password-reset link stays valid.
const DefaultResetTTL = time.Hour

const resetPurpose = "password-reset"

// ResetConfig configures password-reset dispatch.
type ResetConfig struct {
	Secret string
	TTL    time.Duration
	// LinkBase is the page that accepts the reset token, e.g.
	// https://architect.example.com/reset. The token is appended as ?token=.
	LinkBase string
}

type resetClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Resets issues and redeems password-reset tokens.
type Resets struct {
	provider Provider
	notifier notify.Notifier
	secret   []byte
	ttl      time.Duration
	linkBase string
	now      func() time.Time

	mu   sync.Mutex
	used map[string]time.Time // jti -> expiry
}

// NewResets returns a reset dispatcher that mails through notifier.
func NewResets(provider Provider, notifier notify.Notifier, cfg ResetConfig) *Resets {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultResetTTL
	}
	return &Resets{
		provider: provider,
		notifier: notifier,
		secret:   []byte(cfg.Secret),
		ttl:      ttl,
		linkBase: cfg.LinkBase,
		now:      time.Now,
		used:     make(map[string]time.Time),
	}
}

// Send mails a reset link to email. Unknown addresses succeed without
// sending anything so callers cannot enumerate registered accounts.
func (r *Resets) Send(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}
	u, err := r.provider.UserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	token, err := r.issue(u)
	if err != nil {
		return err
	}
	msg := notify.Message{
		Kind:    resetPurpose,
		To:      u.Email,
		Subject: "Reset your password",
		Body:    fmt.Sprintf("Follow this link to choose a new password: %s", r.link(token)),
		Data:    map[string]string{"token": token, "uid": u.UID},
	}
	if err := r.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending reset mail: %w", err)
	}
	return nil
}

// Confirm redeems token, sets the new password and returns the uid whose
// password changed. Each token is accepted once.
func (r *Resets) Confirm(ctx context.Context, token, password string) (string, error) {
	if err := ValidatePassword(password); err != nil {
		return "", err
	}
	claims, err := r.parse(token)
	if err != nil {
		return "", ErrInvalidActionCode
	}
	if !r.markUsed(claims.ID, claims.ExpiresAt.Time) {
		return "", ErrInvalidActionCode
	}
	if err := r.provider.SetPassword(ctx, claims.Subject, password); err != nil {
		r.release(claims.ID)
		return "", err
	}
	return claims.Subject, nil
}

func (r *Resets) issue(u *User) (string, error) {
	now := r.now().UTC()
	claims := resetClaims{
		Email:   u.Email,
		Purpose: resetPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   u.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("signing reset token: %w", err)
	}
	return signed, nil
}

func (r *Resets) parse(token string) (*resetClaims, error) {
	claims := &resetClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Purpose != resetPurpose || claims.Subject == "" || claims.ID == "" {
		return nil, errors.New("not a reset token")
	}
	return claims, nil
}

// markUsed reserves jti and reports whether it was unused. Confirm releases
// the reservation if the password could not be set.
func (r *Resets) markUsed(jti string, expires time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, exp := range r.used {
		if now.After(exp) {
			delete(r.used, id)
		}
	}
	if _, ok := r.used[jti]; ok {
		return false
	}
	r.used[jti] = expires
	return true
}

// release forgets jti so a token whose redemption failed can be retried.
func (r *Resets) release(jti string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.used, jti)
}

func (r *Resets) link(token string) string {
	if r.linkBase == "" {
		return token
	}
	return r.linkBase + "?token=" + url.QueryEscape(token)
}
