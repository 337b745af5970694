package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clouddwh/architect/internal/docstore"
	"github.com/clouddwh/architect/internal/document"
	"github.com/clouddwh/architect/internal/identity"
)

// ErrNotFound is returned when no account matches.
var ErrNotFound = document.ErrNotFound

// ErrInvalidLanguage is returned for an unsupported language preference.
var ErrInvalidLanguage = errors.New("unsupported language")

// Service implements the account operations over the document store.
type Service struct {
	db     *document.DB
	logger *slog.Logger
}

// NewService creates an account service. A nil logger uses slog.Default.
func NewService(db *document.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

// Create registers the identity, sets its display name and stores a locked
// account keyed by the identity's uid. The new identity stays signed in on
// auth.
func (s *Service) Create(ctx context.Context, auth *identity.Auth, reg Registration) (*Account, error) {
	reg = reg.Normalized()
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	user, err := auth.CreateUser(ctx, reg.Email, reg.Password)
	if err != nil {
		return nil, err
	}
	name := FullName(reg.FirstName, reg.LastName)
	if _, err := auth.UpdateProfile(ctx, name); err != nil {
		return nil, err
	}

	data := Data{
		Header: document.Header{Common: document.Common{Name: name}},
		Profile: Profile{
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
			Email:     user.Email,
		},
		Preferences: Preferences{Language: reg.Language, Dark: reg.Dark},
		State:       State{Locked: true},
	}
	return document.Create(document.WithActor(ctx, name), s.db, Collection, data, user.UID)
}

// Login signs in and returns the account. A locked account is signed back
// out and fails with identity.ErrAccountLocked.
func (s *Service) Login(ctx context.Context, auth *identity.Auth, email, password string) (*Account, error) {
	user, err := auth.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	acc, err := s.Load(ctx, user.UID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("no account document found for user ID %q", user.UID)
	}
	if err != nil {
		return nil, err
	}

	if acc.Data.State.Locked {
		if err := auth.SignOut(ctx); err != nil {
			s.logger.WarnContext(ctx, "sign out of locked account failed", "uid", user.UID, "error", err)
		}
		return nil, identity.ErrAccountLocked
	}

	now := s.db.Now()
	acc.Data.State.LastLogin = &now
	if err := document.Update(ctx, s.db, acc, document.WithoutMetaStamp()); err != nil {
		return nil, err
	}
	return acc, nil
}

// Logout signs the identity out.
func (s *Service) Logout(ctx context.Context, auth *identity.Auth) error {
	return auth.SignOut(ctx)
}

// Load reads the account with id.
func (s *Service) Load(ctx context.Context, id string) (*Account, error) {
	return document.Load[Data](ctx, s.db, Collection, id)
}

// GetByEmail returns the account registered with email, or ErrNotFound.
func (s *Service) GetByEmail(ctx context.Context, email string) (*Account, error) {
	accounts, err := document.LoadAll[Data](ctx, s.db, Collection,
		docstore.Where("profile.email", docstore.OpEqual, identity.NormalizeEmail(email)))
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, ErrNotFound
	}
	return accounts[0], nil
}

// List returns all accounts ordered by id.
func (s *Service) List(ctx context.Context) ([]*Account, error) {
	return document.LoadAll[Data](ctx, s.db, Collection)
}

// OnAccountStateChange calls handler with the signed-in account on every
// sign-in state transition of auth. It passes nil when signed out, when the
// identity has no account document or when the account is locked. The lock
// is re-read on every transition.
func (s *Service) OnAccountStateChange(ctx context.Context, auth *identity.Auth, handler func(context.Context, *Account)) *identity.Subscription {
	return auth.OnAuthStateChanged(ctx, func(ctx context.Context, user *identity.User) {
		if user == nil {
			handler(ctx, nil)
			return
		}
		acc, err := s.Load(ctx, user.UID)
		switch {
		case errors.Is(err, ErrNotFound):
			s.logger.WarnContext(ctx, "no account document found for identity", "uid", user.UID)
			handler(ctx, nil)
		case err != nil:
			s.logger.ErrorContext(ctx, "loading account", "uid", user.UID, "error", err)
			handler(ctx, nil)
		case acc.Data.State.Locked:
			handler(ctx, nil)
		default:
			handler(ctx, acc)
		}
	})
}

// UpdatePreferences replaces the account's preferences.
func (s *Service) UpdatePreferences(ctx context.Context, acc *Account, prefs Preferences) error {
	if prefs.Language == "" {
		prefs.Language = DefaultLanguage
	}
	if !prefs.Language.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidLanguage, prefs.Language)
	}
	acc.Data.Preferences = prefs
	return document.Update(ctx, s.db, acc)
}

// SetActiveProject records the project the account last worked on; nil
// clears it.
func (s *Service) SetActiveProject(ctx context.Context, acc *Account, projectID *string) error {
	acc.Data.State.ActiveProjectID = projectID
	return document.Update(ctx, s.db, acc)
}

// SetLocked locks or unlocks the account with id.
func (s *Service) SetLocked(ctx context.Context, id string, locked bool) (*Account, error) {
	acc, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	acc.Data.State.Locked = locked
	if err := document.Update(ctx, s.db, acc); err != nil {
		return nil, err
	}
	return acc, nil
}
