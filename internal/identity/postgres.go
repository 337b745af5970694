package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clouddwh/architect/internal/auth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

// PostgresProvider stores identities and hashed session tokens in Postgres
// (the identities and identity_sessions tables).
type PostgresProvider struct {
	pool *pgxpool.Pool
	ttl  time.Duration
}

// NewPostgresProvider creates a provider backed by pool whose sessions last
// ttl (DefaultSessionTTL when zero).
func NewPostgresProvider(pool *pgxpool.Pool, ttl time.Duration) *PostgresProvider {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &PostgresProvider{pool: pool, ttl: ttl}
}

// scanUser scans a user row in (uid, email, display_name, created_at) order.
func scanUser(scan func(dest ...any) error) (*User, error) {
	u := &User{}
	if err := scan(&u.UID, &u.Email, &u.DisplayName, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

func (p *PostgresProvider) CreateUser(ctx context.Context, email, password string) (*User, string, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	u, err := scanUser(func(dest ...any) error {
		return p.pool.QueryRow(ctx,
			`INSERT INTO identities (email, password_hash)
			 VALUES ($1, $2)
			 RETURNING uid, email, display_name, created_at`,
			email, string(hash),
		).Scan(dest...)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, "", ErrEmailInUse
		}
		return nil, "", fmt.Errorf("creating identity: %w", err)
	}

	token, err := p.openSession(ctx, u.UID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (p *PostgresProvider) UpdateProfile(ctx context.Context, uid, displayName string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return p.pool.QueryRow(ctx,
			`UPDATE identities SET display_name = $2 WHERE uid = $1
			 RETURNING uid, email, display_name, created_at`,
			uid, displayName,
		).Scan(dest...)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	return u, nil
}

func (p *PostgresProvider) SignIn(ctx context.Context, email, password string) (*User, string, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, "", err
	}

	var hash string
	u, err := scanUser(func(dest ...any) error {
		return p.pool.QueryRow(ctx,
			`SELECT uid, email, display_name, created_at, password_hash
			 FROM identities WHERE email = $1`, email,
		).Scan(append(dest, &hash)...)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, "", ErrInvalidCredential
	}
	if err != nil {
		return nil, "", fmt.Errorf("looking up identity: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredential
	}

	token, err := p.openSession(ctx, u.UID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (p *PostgresProvider) Verify(ctx context.Context, token string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return p.pool.QueryRow(ctx,
			`SELECT i.uid, i.email, i.display_name, i.created_at
			 FROM identity_sessions s JOIN identities i ON s.uid = i.uid
			 WHERE s.token_hash = $1 AND s.expires_at > now()`,
			auth.HashKey(token),
		).Scan(dest...)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, fmt.Errorf("verifying session: %w", err)
	}
	return u, nil
}

func (p *PostgresProvider) SignOut(ctx context.Context, token string) error {
	_, err := p.pool.Exec(ctx, `DELETE FROM identity_sessions WHERE token_hash = $1`, auth.HashKey(token))
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (p *PostgresProvider) UserByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(func(dest ...any) error {
		return p.pool.QueryRow(ctx,
			`SELECT uid, email, display_name, created_at
			 FROM identities WHERE email = $1`, NormalizeEmail(email),
		).Scan(dest...)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting identity by email: %w", err)
	}
	return u, nil
}

func (p *PostgresProvider) SetPassword(ctx context.Context, uid, password string) error {
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, `UPDATE identities SET password_hash = $2 WHERE uid = $1`, uid, string(hash))
	if err != nil {
		return fmt.Errorf("setting password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM identity_sessions WHERE uid = $1`, uid); err != nil {
		return fmt.Errorf("revoking sessions: %w", err)
	}
	return tx.Commit(ctx)
}

// CleanExpiredSessions deletes all sessions that have expired.
func (p *PostgresProvider) CleanExpiredSessions(ctx context.Context) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM identity_sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, fmt.Errorf("cleaning expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *PostgresProvider) openSession(ctx context.Context, uid string) (string, error) {
	token, hash, err := auth.GenerateToken()
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	now := time.Now()
	_, err = p.pool.Exec(ctx,
		`INSERT INTO identity_sessions (token_hash, uid, created_at, expires_at)
		 VALUES ($1, $2, $3, $4)`,
		hash, uid, now, now.Add(p.ttl),
	)
	if err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return token, nil
}
