// Package authbridge keeps a session's application context in step with
// its sign-in state and turns identity failures into localized field
// messages.
package authbridge

import (
	"context"
	"errors"
	"log/slog"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/i18n"
	"github.com/clouddwh/architect/internal/identity"
	"github.com/clouddwh/architect/internal/project"
	"github.com/clouddwh/architect/internal/session"
)

// Bridge rebuilds session state from the account and project services.
type Bridge struct {
	accounts *account.Service
	projects *project.Service
	logger   *slog.Logger
}

// New creates a Bridge. A nil logger uses slog.Default.
func New(accounts *account.Service, projects *project.Service, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{accounts: accounts, projects: projects, logger: logger}
}

// Attach subscribes sess to its account state. Every transition replaces the
// session's account and reloads its project list; a nil account clears the
// state. The subscription ends when ctx is done or the session is closed.
func (b *Bridge) Attach(ctx context.Context, sess *session.Session) *identity.Subscription {
	sub := b.accounts.OnAccountStateChange(ctx, sess.Auth, func(ctx context.Context, acc *account.Account) {
		if err := b.apply(ctx, sess.State, acc); err != nil {
			b.logger.ErrorContext(ctx, "rebuilding session state", "error", err)
		}
	})
	sess.OnClose(sub.Cancel)
	return sub
}

// Sync rebuilds sess from the currently signed-in identity. It returns the
// account, or nil when signed out, unknown or locked.
func (b *Bridge) Sync(ctx context.Context, sess *session.Session) (*account.Account, error) {
	user := sess.Auth.CurrentUser()
	if user == nil {
		return nil, b.apply(ctx, sess.State, nil)
	}
	acc, err := b.accounts.Load(ctx, user.UID)
	if errors.Is(err, account.ErrNotFound) {
		b.logger.WarnContext(ctx, "no account document found for identity", "uid", user.UID)
		return nil, b.apply(ctx, sess.State, nil)
	}
	if err != nil {
		return nil, err
	}
	if acc.Data.State.Locked {
		return nil, b.apply(ctx, sess.State, nil)
	}
	return acc, b.apply(ctx, sess.State, acc)
}

// Refresh reloads the project list of the session's current account.
func (b *Bridge) Refresh(ctx context.Context, state *session.State) error {
	acc := state.Account()
	if acc == nil {
		return nil
	}
	projects, err := b.projects.LoadProjects(ctx, acc.ID)
	if err != nil {
		return err
	}
	state.SetProjectList(projects)
	return nil
}

func (b *Bridge) apply(ctx context.Context, state *session.State, acc *account.Account) error {
	if acc == nil {
		state.Clear()
		return nil
	}
	state.SetAccount(acc)
	return b.Refresh(ctx, state)
}

// Field names used by MapError.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
)

// Fields collects localized messages per input field.
type Fields map[string]string

var fieldForCode = map[identity.Code]struct {
	field string
	key   string
}{
	identity.CodeInvalidEmail:      {FieldEmail, "authentication.error.invalidEmail"},
	identity.CodeEmailInUse:        {FieldEmail, "authentication.error.emailAlreadyInUse"},
	identity.CodeWeakPassword:      {FieldPassword, "authentication.error.weakPassword"},
	identity.CodeInvalidCredential: {FieldPassword, "authentication.error.invalidCredential"},
	identity.CodeTooManyRequests:   {FieldPassword, "authentication.error.tooManyRequests"},
	identity.CodeAccountLocked:     {FieldPassword, "authentication.error.accountLocked"},
	identity.CodeInvalidActionCode: {FieldPassword, "authentication.error.invalidActionCode"},
}

// MapError attaches a localized message for err to the email or password
// field. It reports false, leaving fields untouched, when err carries no
// classified identity code. Codes that belong to the password field are
// only mapped when allowPassword is set, for forms without one.
func MapError(l *i18n.Localizer, err error, fields Fields, allowPassword bool) bool {
	code, ok := identity.CodeOf(err)
	if !ok {
		return false
	}
	m, ok := fieldForCode[code]
	if !ok {
		return false
	}
	if m.field == FieldPassword && !allowPassword {
		return false
	}
	fields[m.field] = l.T(m.key)
	return true
}
