package identity

import (
	"context"
	"sync"
	"time"

	"github.com/clouddwh/architect/internal/auth"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is how long a session token stays valid.
const DefaultSessionTTL = 7 * 24 * time.Hour

type memoryRecord struct {
	user User
	hash []byte
}

type memorySession struct {
	uid       string
	expiresAt time.Time
}

// MemoryProvider keeps identities in process memory. It is used by tests and
// by the server when no database is configured.
type MemoryProvider struct {
	mu       sync.Mutex
	users    map[string]*memoryRecord // by uid
	byEmail  map[string]string        // email -> uid
	sessions map[string]memorySession // token hash -> session
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

// NewMemoryProvider returns an empty provider whose sessions last ttl
// (DefaultSessionTTL when zero).
func NewMemoryProvider(ttl time.Duration) *MemoryProvider {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemoryProvider{
		users:    make(map[string]*memoryRecord),
		byEmail:  make(map[string]string),
		sessions: make(map[string]memorySession),
		ttl:      ttl,
		cost:     bcrypt.MinCost,
		now:      time.Now,
	}
}

func (p *MemoryProvider) CreateUser(ctx context.Context, email, password string) (*User, string, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.byEmail[email]; ok {
		return nil, "", ErrEmailInUse
	}
	rec := &memoryRecord{
		user: User{UID: uuid.NewString(), Email: email, CreatedAt: p.now().UTC()},
		hash: hash,
	}
	p.users[rec.user.UID] = rec
	p.byEmail[email] = rec.user.UID

	token, err := p.openSession(rec.user.UID)
	if err != nil {
		return nil, "", err
	}
	return clone(&rec.user), token, nil
}

func (p *MemoryProvider) UpdateProfile(ctx context.Context, uid, displayName string) (*User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.users[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	rec.user.DisplayName = displayName
	return clone(&rec.user), nil
}

func (p *MemoryProvider) SignIn(ctx context.Context, email, password string) (*User, string, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.byEmail[email]
	if !ok {
		return nil, "", ErrInvalidCredential
	}
	rec := p.users[uid]
	if bcrypt.CompareHashAndPassword(rec.hash, []byte(password)) != nil {
		return nil, "", ErrInvalidCredential
	}
	token, err := p.openSession(uid)
	if err != nil {
		return nil, "", err
	}
	return clone(&rec.user), token, nil
}

func (p *MemoryProvider) Verify(ctx context.Context, token string) (*User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	hash := auth.HashKey(token)
	sess, ok := p.sessions[hash]
	if !ok || !p.now().Before(sess.expiresAt) {
		delete(p.sessions, hash)
		return nil, ErrSessionExpired
	}
	rec, ok := p.users[sess.uid]
	if !ok {
		return nil, ErrSessionExpired
	}
	return clone(&rec.user), nil
}

func (p *MemoryProvider) SignOut(ctx context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, auth.HashKey(token))
	return nil
}

func (p *MemoryProvider) UserByEmail(ctx context.Context, email string) (*User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.byEmail[NormalizeEmail(email)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return clone(&p.users[uid].user), nil
}

func (p *MemoryProvider) SetPassword(ctx context.Context, uid, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	rec, ok := p.users[uid]
	if !ok {
		return ErrUserNotFound
	}
	rec.hash = hash
	for h, s := range p.sessions {
		if s.uid == uid {
			delete(p.sessions, h)
		}
	}
	return nil
}

// openSession must be called with p.mu held.
func (p *MemoryProvider) openSession(uid string) (string, error) {
	token, hash, err := auth.GenerateToken()
	if err != nil {
		return "", err
	}
	p.sessions[hash] = memorySession{uid: uid, expiresAt: p.now().Add(p.ttl)}
	return token, nil
}
