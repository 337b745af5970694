// Package identity is the email/password identity provider: user records,
// opaque session tokens, sign-in throttling, password resets and the
// per-client Auth handle that publishes sign-in state transitions.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the shortest password the provider accepts.
const MinPasswordLength = 6

// User is an identity known to the provider.
type User struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Provider is the identity backend.
type Provider interface {
	// CreateUser registers a new identity and opens a session for it.
	CreateUser(ctx context.Context, email, password string) (*User, string, error)
	UpdateProfile(ctx context.Context, uid, displayName string) (*User, error)
	// SignIn checks credentials and returns the user with a fresh session token.
	SignIn(ctx context.Context, email, password string) (*User, string, error)
	// Verify resolves a session token to its user.
	Verify(ctx context.Context, token string) (*User, error)
	SignOut(ctx context.Context, token string) error
	UserByEmail(ctx context.Context, email string) (*User, error)
	// SetPassword replaces the password and revokes every session of uid.
	SetPassword(ctx context.Context, uid, password string) error
}

// Code identifies a provider failure the caller can act on.
type Code string

const (
	CodeInvalidEmail      Code = "auth/invalid-email"
	CodeEmailInUse        Code = "auth/email-already-in-use"
	CodeWeakPassword      Code = "auth/weak-password"
	CodeInvalidCredential Code = "auth/invalid-credential"
	CodeUserNotFound      Code = "auth/user-not-found"
	CodeTooManyRequests   Code = "auth/too-many-requests"
	CodeAccountLocked     Code = "auth/account-locked"
	CodeInvalidActionCode Code = "auth/invalid-action-code"
	CodeSessionExpired    Code = "auth/session-expired"
)

// Error is a coded provider failure. Two errors match under errors.Is when
// their codes are equal.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrInvalidEmail      = &Error{Code: CodeInvalidEmail, Message: "the email address is badly formatted"}
	ErrEmailInUse        = &Error{Code: CodeEmailInUse, Message: "the email address is already in use by another account"}
	ErrWeakPassword      = &Error{Code: CodeWeakPassword, Message: "password should be at least 6 characters"}
	ErrInvalidCredential = &Error{Code: CodeInvalidCredential, Message: "the supplied credentials are incorrect"}
	ErrUserNotFound      = &Error{Code: CodeUserNotFound, Message: "no user record corresponds to this identifier"}
	ErrTooManyRequests   = &Error{Code: CodeTooManyRequests, Message: "access has been temporarily disabled due to many failed attempts"}
	ErrAccountLocked     = &Error{Code: CodeAccountLocked, Message: "the account is locked until an administrator activates it"}
	ErrInvalidActionCode = &Error{Code: CodeInvalidActionCode, Message: "the action code is invalid or has expired"}
	ErrSessionExpired    = &Error{Code: CodeSessionExpired, Message: "the session is invalid or has expired"}
)

// ErrNotSignedIn is returned by Auth operations that need a current user.
var ErrNotSignedIn = errors.New("identity: not signed in")

// CodeOf returns the provider code carried by err, if any.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

var validate = validator.New()

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail rejects addresses that are empty or syntactically invalid.
func ValidateEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

func clone(u *User) *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
