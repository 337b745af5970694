package session

import (
	"sync"
	"time"

	"github.com/clouddwh/architect/internal/identity"
)

// Gauge receives the number of open sessions.
type Gauge interface {
	Set(float64)
}

// Session binds a client's identity handle to its application context.
type Session struct {
	Token string
	Auth  *identity.Auth
	State *State

	mu       sync.Mutex
	lastSeen time.Time
	onClose  []func()
}

// OnClose registers fn to run when the session is closed.
func (s *Session) OnClose(fn func()) {
	s.mu.Lock()
	s.onClose = append(s.onClose, fn)
	s.mu.Unlock()
}

// UID returns the signed-in user's uid, or "".
func (s *Session) UID() string {
	if u := s.Auth.CurrentUser(); u != nil {
		return u.UID
	}
	return ""
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.mu.Lock()
	fns := s.onClose
	s.onClose = nil
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Registry tracks the open sessions of a server by token.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	gauge    Gauge
	now      func() time.Time
}

// NewRegistry returns an empty registry reporting its size to gauge, which
// may be nil.
func NewRegistry(gauge Gauge) *Registry {
	return &Registry{sessions: make(map[string]*Session), gauge: gauge, now: time.Now}
}

// Open registers a session for token, replacing (and closing) any previous
// session with the same token.
func (r *Registry) Open(token string, auth *identity.Auth, state *State) *Session {
	sess := &Session{Token: token, Auth: auth, State: state, lastSeen: r.now()}

	r.mu.Lock()
	prev := r.sessions[token]
	r.sessions[token] = sess
	r.report()
	r.mu.Unlock()

	if prev != nil {
		prev.close()
	}
	return sess
}

// Get returns the session for token and marks it as used.
func (r *Registry) Get(token string) (*Session, bool) {
	r.mu.Lock()
	sess, ok := r.sessions[token]
	r.mu.Unlock()
	if ok {
		sess.touch(r.now())
	}
	return sess, ok
}

// Close removes the session for token. Closing an unknown token is a no-op.
func (r *Registry) Close(token string) {
	r.mu.Lock()
	sess, ok := r.sessions[token]
	delete(r.sessions, token)
	r.report()
	r.mu.Unlock()

	if ok {
		sess.close()
	}
}

// CloseUser removes every session signed in as uid and returns how many
// were closed.
func (r *Registry) CloseUser(uid string) int {
	r.mu.Lock()
	var closed []*Session
	for token, sess := range r.sessions {
		if sess.UID() == uid {
			closed = append(closed, sess)
			delete(r.sessions, token)
		}
	}
	r.report()
	r.mu.Unlock()

	for _, sess := range closed {
		sess.close()
	}
	return len(closed)
}

// Expire closes sessions unused for longer than idle.
func (r *Registry) Expire(idle time.Duration) int {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	var expired []*Session
	for token, sess := range r.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(r.sessions, token)
		}
	}
	r.report()
	r.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	return len(expired)
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// report must be called with r.mu held.
func (r *Registry) report() {
	if r.gauge != nil {
		r.gauge.Set(float64(len(r.sessions)))
	}
}
