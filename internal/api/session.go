package api

import (
	"context"
	"net/http"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/auth"
	"github.com/clouddwh/architect/internal/authbridge"
	"github.com/clouddwh/architect/internal/document"
	"github.com/clouddwh/architect/internal/i18n"
	"github.com/clouddwh/architect/internal/identity"
	"github.com/clouddwh/architect/internal/session"
)

// sessionBinder resolves the bearer token of a request to an open session,
// resuming it from the identity provider when this server has not seen the
// token yet.
type sessionBinder struct {
	provider identity.Provider
	bridge   *authbridge.Bridge
	sessions *session.Registry
}

// open registers a session for a freshly signed-in auth handle, rebuilds
// its state and subscribes it to later transitions.
func (b *sessionBinder) open(ctx context.Context, a *identity.Auth) (*session.Session, *account.Account, error) {
	sess := b.sessions.Open(a.Token(), a, session.New())
	acc, err := b.bridge.Sync(ctx, sess)
	if err != nil {
		b.sessions.Close(sess.Token)
		return nil, nil, err
	}
	b.bridge.Attach(context.WithoutCancel(ctx), sess)
	return sess, acc, nil
}

func (b *sessionBinder) resume(ctx context.Context, token string) (*session.Session, error) {
	if sess, ok := b.sessions.Get(token); ok {
		return sess, nil
	}
	a := identity.NewAuth(b.provider)
	if _, err := a.Restore(ctx, token); err != nil {
		return nil, err
	}
	sess, acc, err := b.open(ctx, a)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		b.sessions.Close(token)
		return nil, identity.ErrAccountLocked
	}
	return sess, nil
}

// middleware admits requests whose bearer token belongs to a signed-in,
// unlocked account. Downstream handlers find the session in the context and
// their document writes are stamped with the account name.
func (b *sessionBinder) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := auth.BearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", localizer(r).T("error.unauthorized"))
			return
		}

		sess, err := b.resume(r.Context(), token)
		if err != nil {
			writeServiceError(w, r, err, "")
			return
		}

		acc := sess.State.Account()
		if acc == nil {
			// Signed out or locked since the session was opened.
			b.sessions.Close(token)
			writeError(w, http.StatusUnauthorized, "unauthorized", localizer(r).T("error.unauthorized"))
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		ctx = document.WithActor(ctx, sess.Auth.CurrentAccountName())
		if r.Header.Get("Accept-Language") == "" {
			ctx = context.WithValue(ctx, localizerKey, i18n.New(string(acc.Data.Preferences.Language)))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the session bound by the session middleware, or nil.
func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey).(*session.Session)
	return sess
}
