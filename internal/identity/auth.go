package identity

import (
	"context"
	"sync"
)

// Auth is a client's view of the provider: it holds the signed-in user and
// session token and publishes sign-in state transitions to subscribers. One
// Auth exists per client session.
type Auth struct {
	provider Provider

	mu    sync.Mutex
	user  *User
	token string
	subs  map[*Subscription]struct{}
}

// NewAuth returns a signed-out handle over provider.
func NewAuth(provider Provider) *Auth {
	return &Auth{provider: provider, subs: make(map[*Subscription]struct{})}
}

// Provider returns the backing identity provider.
func (a *Auth) Provider() Provider {
	return a.provider
}

// CreateUser registers a new identity and signs it in.
func (a *Auth) CreateUser(ctx context.Context, email, password string) (*User, error) {
	u, token, err := a.provider.CreateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}
	a.setState(u, token)
	return clone(u), nil
}

// SignIn authenticates with email and password.
func (a *Auth) SignIn(ctx context.Context, email, password string) (*User, error) {
	u, token, err := a.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	a.setState(u, token)
	return clone(u), nil
}

// Restore resumes a session from a previously issued token.
func (a *Auth) Restore(ctx context.Context, token string) (*User, error) {
	u, err := a.provider.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	a.setState(u, token)
	return clone(u), nil
}

// SignOut revokes the current session. Local state is cleared even when the
// provider fails to revoke the token.
func (a *Auth) SignOut(ctx context.Context) error {
	a.mu.Lock()
	token := a.token
	wasSignedIn := a.user != nil
	a.mu.Unlock()

	var err error
	if token != "" {
		err = a.provider.SignOut(ctx, token)
	}
	if wasSignedIn {
		a.setState(nil, "")
	}
	return err
}

// UpdateProfile sets the current user's display name. Profile changes are not
// sign-in transitions and do not notify subscribers.
func (a *Auth) UpdateProfile(ctx context.Context, displayName string) (*User, error) {
	a.mu.Lock()
	cur := a.user
	a.mu.Unlock()
	if cur == nil {
		return nil, ErrNotSignedIn
	}

	u, err := a.provider.UpdateProfile(ctx, cur.UID, displayName)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	if a.user != nil && a.user.UID == u.UID {
		a.user = clone(u)
	}
	a.mu.Unlock()
	return clone(u), nil
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (a *Auth) CurrentUser() *User {
	a.mu.Lock()
	defer a.mu.Unlock()
	return clone(a.user)
}

// Token returns the current session token, or "".
func (a *Auth) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

// CurrentAccountName returns the signed-in user's display name, or "".
func (a *Auth) CurrentAccountName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.user == nil {
		return ""
	}
	return a.user.DisplayName
}

// OnAuthStateChanged registers handler for sign-in state transitions. The
// handler is called with the current state right away and again after every
// sign-in or sign-out, with nil meaning signed out. Calls for one
// subscription are serialized on their own goroutine; when transitions
// arrive faster than the handler runs, only the latest state is delivered.
// Delivery stops when ctx is done or the subscription is cancelled.
func (a *Auth) OnAuthStateChanged(ctx context.Context, handler func(context.Context, *User)) *Subscription {
	s := &Subscription{
		auth:    a,
		handler: handler,
		wake:    make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}

	a.mu.Lock()
	a.subs[s] = struct{}{}
	s.push(clone(a.user))
	a.mu.Unlock()

	go s.run(ctx)
	return s
}

func (a *Auth) setState(u *User, token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user = clone(u)
	a.token = token
	for s := range a.subs {
		s.push(clone(u))
	}
}

func (a *Auth) unsubscribe(s *Subscription) {
	a.mu.Lock()
	delete(a.subs, s)
	a.mu.Unlock()
}

// Subscription is a registered auth-state handler.
type Subscription struct {
	auth    *Auth
	handler func(context.Context, *User)

	mu         sync.Mutex
	pending    *User
	hasPending bool

	wake chan struct{}
	stop chan struct{}
	once sync.Once
	done chan struct{}
}

// Cancel stops delivery. A handler call already in progress completes.
func (s *Subscription) Cancel() {
	s.once.Do(func() { close(s.stop) })
}

// Done is closed once the subscription's goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) push(u *User) {
	s.mu.Lock()
	s.pending = u
	s.hasPending = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)
	defer s.auth.unsubscribe(s)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-s.wake:
		}

		s.mu.Lock()
		u, ok := s.pending, s.hasPending
		s.pending, s.hasPending = nil, false
		s.mu.Unlock()

		if ok {
			s.handler(ctx, u)
		}
	}
}
