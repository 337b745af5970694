package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/authbridge"
	"github.com/clouddwh/architect/internal/config"
	"github.com/clouddwh/architect/internal/docstore"
	"github.com/clouddwh/architect/internal/document"
	"github.com/clouddwh/architect/internal/identity"
	"github.com/clouddwh/architect/internal/metrics"
	"github.com/clouddwh/architect/internal/notify"
	"github.com/clouddwh/architect/internal/project"
	"github.com/clouddwh/architect/internal/ratelimit"
	"github.com/clouddwh/architect/internal/session"
	"github.com/jackc/pgx/v5/pgxpool"
)

// stack is the wired backend shared by serve and seed.
type stack struct {
	cfg      *config.Config
	metrics  *metrics.Metrics
	pool     *pgxpool.Pool
	users    *identity.PostgresProvider
	redis    *notify.RedisNotifier
	provider identity.Provider
	accounts *account.Service
	projects *project.Service
	bridge   *authbridge.Bridge
	sessions *session.Registry
	resets   *identity.Resets
	throttle *ratelimit.Limiter
}

func newStack(ctx context.Context, cfg *config.Config) (*stack, error) {
	s := &stack{cfg: cfg, metrics: metrics.New()}

	var store docstore.Store
	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		slog.Info("connected to database")
		s.pool = pool
		s.metrics.RegisterDBPoolCollector(func() metrics.PoolStats {
			st := pool.Stat()
			return metrics.PoolStats{
				Total:    st.TotalConns(),
				Idle:     st.IdleConns(),
				Acquired: st.AcquiredConns(),
				Max:      st.MaxConns(),
			}
		})
		store = docstore.NewPostgresStore(pool)
		s.users = identity.NewPostgresProvider(pool, cfg.Identity.SessionTTL)
		s.provider = s.users
	} else {
		slog.Warn("no database configured, keeping all data in memory")
		store = docstore.NewMemoryStore()
		s.provider = identity.NewMemoryProvider(cfg.Identity.SessionTTL)
	}

	s.throttle = ratelimit.New(cfg.RateLimit.Attempts, cfg.RateLimit.Window)
	s.provider = identity.Throttle(s.provider, s.throttle)

	var outbox notify.Notifier = notify.NewLogNotifier(slog.Default())
	if cfg.Mail.RedisAddr != "" {
		s.redis = notify.NewRedisNotifier(notify.RedisConfig{
			Addr:     cfg.Mail.RedisAddr,
			Password: cfg.Mail.RedisPassword,
			DB:       cfg.Mail.RedisDB,
			Queue:    cfg.Mail.Queue,
		})
		if err := s.redis.Ping(ctx); err != nil {
			slog.Warn("mail outbox unreachable", "addr", cfg.Mail.RedisAddr, "error", err)
		}
		outbox = s.redis
	}
	outbox = notify.Counted(outbox, s.metrics)

	db := document.NewDB(docstore.Instrumented(store, s.metrics))
	s.accounts = account.NewService(db, slog.Default())
	s.projects = project.NewService(db)
	s.bridge = authbridge.New(s.accounts, s.projects, slog.Default())
	s.sessions = session.NewRegistry(s.metrics.ActiveSessions)
	s.resets = identity.NewResets(s.provider, outbox, identity.ResetConfig{
		Secret:   cfg.Reset.Secret,
		TTL:      cfg.Reset.TTL,
		LinkBase: cfg.Reset.LinkBase,
	})
	return s, nil
}

// ping reports whether the backing database answers.
func (s *stack) ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// janitor drops idle sessions, stale limiter buckets and expired identity
// tokens until ctx is done.
func (s *stack) janitor(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.sessions.Expire(s.cfg.Session.IdleTimeout); n > 0 {
				slog.Info("expired idle sessions", "count", n)
			}
			s.throttle.Sweep()
			if s.users != nil {
				if n, err := s.users.CleanExpiredSessions(ctx); err != nil {
					slog.Error("cleaning expired identity sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned expired identity sessions", "count", n)
				}
			}
		}
	}
}

func (s *stack) close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.pool != nil {
		s.pool.Close()
	}
}
