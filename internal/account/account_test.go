package account

import (
	"context"
	"testing"
	"time"

	"github.com/clouddwh/architect/internal/docstore"
	"github.com/clouddwh/architect/internal/document"
	"github.com/clouddwh/architect/internal/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Service
	provider *identity.MemoryProvider
	auth     *identity.Auth
	clock    *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	clock := &now
	db := document.NewDB(docstore.NewMemoryStore()).WithClock(func() time.Time { return *clock })
	provider := identity.NewMemoryProvider(0)
	return &fixture{
		svc:      NewService(db, nil),
		provider: provider,
		auth:     identity.NewAuth(provider),
		clock:    clock,
	}
}

func (f *fixture) advance(d time.Duration) { *f.clock = f.clock.Add(d) }

func validRegistration() Registration {
	return Registration{
		FirstName:       "Ada",
		LastName:        "Lovelace",
		Email:           "a@x.com",
		Password:        "abcdef",
		PasswordConfirm: "abcdef",
		Language:        LanguageDeDE,
		Dark:            true,
	}
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Registration)
		want   FieldErrors
	}{
		{"missing first name", func(r *Registration) { r.FirstName = "  " }, FieldErrors{"first_name": MsgRequired}},
		{"malformed email", func(r *Registration) { r.Email = "nope" }, FieldErrors{"email": MsgInvalidEmail}},
		{"password mismatch", func(r *Registration) { r.PasswordConfirm = "abcdeg" }, FieldErrors{"password_confirm": MsgPasswordMismatch}},
		{"unknown language", func(r *Registration) { r.Language = "fr-FR" }, FieldErrors{"language": MsgInvalidOption}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			tt.mutate(&reg)
			err := reg.Normalized().Validate()
			var fe FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.want, fe)
		})
	}

	assert.NoError(t, validRegistration().Validate())
}

func TestCreateRejectsInvalidInputBeforeBackend(t *testing.T) {
	f := newFixture(t)
	reg := validRegistration()
	reg.PasswordConfirm = "other"

	_, err := f.svc.Create(context.Background(), f.auth, reg)
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)

	_, err = f.provider.UserByEmail(context.Background(), "a@x.com")
	require.ErrorIs(t, err, identity.ErrUserNotFound, "no identity should be created")
}

func TestCreateAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acc, err := f.svc.Create(ctx, f.auth, validRegistration())
	require.NoError(t, err)

	user := f.auth.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, user.UID, acc.ID)
	assert.Equal(t, "Ada Lovelace", user.DisplayName)

	loaded, err := f.svc.Load(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.TypeAccount, loaded.Type)
	assert.Equal(t, "Ada Lovelace", loaded.Data.Common.Name)
	assert.Nil(t, loaded.Data.Common.Description)
	assert.Equal(t, Profile{FirstName: "Ada", LastName: "Lovelace", Email: "a@x.com"}, loaded.Data.Profile)
	assert.Equal(t, Preferences{Language: LanguageDeDE, Dark: true}, loaded.Data.Preferences)
	assert.True(t, loaded.Data.State.Locked)
	assert.Nil(t, loaded.Data.State.LastLogin)
	assert.Nil(t, loaded.Data.State.ActiveProjectID)
	require.NotNil(t, loaded.Data.Meta)
	assert.Equal(t, "Ada Lovelace", loaded.Data.Meta.Created.By)
}

func TestCreateDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.auth, validRegistration())
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, identity.NewAuth(f.provider), validRegistration())
	require.ErrorIs(t, err, identity.ErrEmailInUse)
}

func TestLoginFreshAccountIsLocked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.auth, validRegistration())
	require.NoError(t, err)

	acc, err := f.svc.Login(ctx, f.auth, "a@x.com", "abcdef")
	require.ErrorIs(t, err, identity.ErrAccountLocked)
	assert.Nil(t, acc)
	assert.Nil(t, f.auth.CurrentUser(), "locked login must sign back out")
	assert.Empty(t, f.auth.Token())
}

func TestLoginUnlockedStampsLastLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.auth, validRegistration())
	require.NoError(t, err)
	require.NoError(t, f.auth.SignOut(ctx))

	f.advance(time.Hour)
	unlockedAt := *f.clock
	_, err = f.svc.SetLocked(document.WithActor(ctx, "administrator"), created.ID, false)
	require.NoError(t, err)

	f.advance(time.Hour)
	loginAt := *f.clock
	acc, err := f.svc.Login(ctx, f.auth, "A@X.com", "abcdef")
	require.NoError(t, err)
	require.NotNil(t, acc.Data.State.LastLogin)
	assert.Equal(t, loginAt, *acc.Data.State.LastLogin)

	loaded, err := f.svc.Load(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, loginAt, *loaded.Data.State.LastLogin)
	// The login write does not count as an alteration.
	require.NotNil(t, loaded.Data.Meta.Altered.At)
	assert.Equal(t, unlockedAt, *loaded.Data.Meta.Altered.At)
	assert.Equal(t, "administrator", *loaded.Data.Meta.Altered.By)
}

func TestLoginErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, f.auth, "a@x.com", "whatever")
	require.ErrorIs(t, err, identity.ErrInvalidCredential)

	// An identity without an account document is an unexpected state.
	_, _, err = f.provider.CreateUser(ctx, "orphan@x.com", "abcdef")
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, f.auth, "orphan@x.com", "abcdef")
	require.Error(t, err)
	_, coded := identity.CodeOf(err)
	assert.False(t, coded)
	assert.Contains(t, err.Error(), "no account document found")
}

func TestGetByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.auth, validRegistration())
	require.NoError(t, err)

	acc, err := f.svc.GetByEmail(ctx, " A@x.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, acc.ID)

	_, err = f.svc.GetByEmail(ctx, "b@x.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func receive(t *testing.T, ch <-chan *Account) *Account {
	t.Helper()
	select {
	case acc := <-ch:
		return acc
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for account state")
		return nil
	}
}

func TestOnAccountStateChange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	states := make(chan *Account, 8)
	sub := f.svc.OnAccountStateChange(ctx, f.auth, func(_ context.Context, acc *Account) { states <- acc })
	defer sub.Cancel()
	assert.Nil(t, receive(t, states))

	created, err := f.svc.Create(ctx, f.auth, validRegistration())
	require.NoError(t, err)
	// Signed in, but the account is locked (or not yet written).
	assert.Nil(t, receive(t, states))

	require.NoError(t, f.auth.SignOut(ctx))
	assert.Nil(t, receive(t, states))

	_, err = f.svc.SetLocked(ctx, created.ID, false)
	require.NoError(t, err)
	_, err = f.svc.Login(ctx, f.auth, "a@x.com", "abcdef")
	require.NoError(t, err)
	got := receive(t, states)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	require.NoError(t, f.svc.Logout(ctx, f.auth))
	assert.Nil(t, receive(t, states))
}

func TestOnAccountStateChangeLockedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.auth, validRegistration())
	require.NoError(t, err)
	require.NoError(t, f.auth.SignOut(ctx))

	states := make(chan *Account, 4)
	sub := f.svc.OnAccountStateChange(ctx, f.auth, func(_ context.Context, acc *Account) { states <- acc })
	defer sub.Cancel()
	assert.Nil(t, receive(t, states))

	// Signing in directly at the identity layer bypasses Login's lock check.
	_, err = f.auth.SignIn(ctx, "a@x.com", "abcdef")
	require.NoError(t, err)
	assert.Nil(t, receive(t, states))
}

func TestUpdatePreferencesAndActiveProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acc, err := f.svc.Create(ctx, f.auth, validRegistration())
	require.NoError(t, err)

	err = f.svc.UpdatePreferences(ctx, acc, Preferences{Language: "xx-XX"})
	require.ErrorIs(t, err, ErrInvalidLanguage)

	require.NoError(t, f.svc.UpdatePreferences(ctx, acc, Preferences{Dark: false}))
	pid := "p1"
	require.NoError(t, f.svc.SetActiveProject(ctx, acc, &pid))

	loaded, err := f.svc.Load(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, Preferences{Language: LanguageEnUS, Dark: false}, loaded.Data.Preferences)
	require.NotNil(t, loaded.Data.State.ActiveProjectID)
	assert.Equal(t, "p1", *loaded.Data.State.ActiveProjectID)
}

func TestDataCloneSharesNoState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	acc, err := f.svc.Create(ctx, f.auth, validRegistration())
	require.NoError(t, err)
	pid := "p1"
	require.NoError(t, f.svc.SetActiveProject(ctx, acc, &pid))
	at := *f.clock
	acc.Data.State.LastLogin = &at

	cp := acc.Data.Clone()
	assert.Equal(t, acc.Data, cp)
	assert.NotSame(t, acc.Data.Meta, cp.Meta)
	assert.NotSame(t, acc.Data.State.LastLogin, cp.State.LastLogin)
	assert.NotSame(t, acc.Data.State.ActiveProjectID, cp.State.ActiveProjectID)

	before := acc.Data.Clone()
	f.advance(time.Hour)
	edit := *acc
	edit.Data = cp
	require.NoError(t, f.svc.UpdatePreferences(document.WithActor(ctx, "Editor"), &edit, Preferences{Language: LanguageEnUS, Dark: true}))
	assert.Equal(t, before, acc.Data)
	assert.NotEqual(t, before.Meta.Altered, edit.Data.Meta.Altered)
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.auth, validRegistration())
	require.NoError(t, err)
	reg := validRegistration()
	reg.Email = "b@x.com"
	_, err = f.svc.Create(ctx, identity.NewAuth(f.provider), reg)
	require.NoError(t, err)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestLanguageTag(t *testing.T) {
	assert.Equal(t, "de-DE", LanguageDeDE.Tag().String())
	assert.Equal(t, "en-US", Language("bogus").Tag().String())
}
