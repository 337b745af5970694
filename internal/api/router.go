package api

import (
	"context"
	"net/http"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/auth"
	"github.com/clouddwh/architect/internal/authbridge"
	"github.com/clouddwh/architect/internal/identity"
	"github.com/clouddwh/architect/internal/metrics"
	"github.com/clouddwh/architect/internal/project"
	"github.com/clouddwh/architect/internal/ratelimit"
	"github.com/clouddwh/architect/internal/session"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Provider identity.Provider
	Accounts *account.Service
	Projects *project.Service
	Bridge   *authbridge.Bridge
	Sessions *session.Registry
	Resets   *identity.Resets

	// Limiter bounds requests to the auth endpoints per client address.
	// Nil disables it.
	Limiter *ratelimit.Limiter
	Metrics *metrics.Metrics

	AdminKey       string
	AllowedOrigins []string

	// Ping reports backend health; nil means always healthy.
	Ping func(ctx context.Context) error
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(chimw.RealIP)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(slogRequestLogger)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(secureHeaders)
	r.Use(localize)

	binder := &sessionBinder{provider: deps.Provider, bridge: deps.Bridge, sessions: deps.Sessions}
	var events authEvents = noEvents{}
	if deps.Metrics != nil {
		events = deps.Metrics
	}
	authH := &authHandler{binder: binder, accounts: deps.Accounts, resets: deps.Resets, events: events}
	me := &meHandler{accounts: deps.Accounts, projects: deps.Projects}
	projects := &projectsHandler{projects: deps.Projects, bridge: deps.Bridge}
	admin := &adminHandler{accounts: deps.Accounts, sessions: deps.Sessions}

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if deps.Ping != nil {
			if err := deps.Ping(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "database": "connected"})
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Exposition())
	}

	// Public (unauthenticated) routes, limited per client address.
	r.Route("/api/v1/auth", func(ar chi.Router) {
		if deps.Limiter != nil {
			ar.Use(ratelimit.Middleware(deps.Limiter, ratelimit.ClientIP, func() {
				if deps.Metrics != nil {
					deps.Metrics.IncRateLimitRejection("client")
				}
			}))
		}
		ar.Post("/register", authH.Register)
		ar.Post("/login", authH.Login)
		ar.Post("/logout", authH.Logout)
		ar.Post("/password-reset", authH.RequestReset)
		ar.Post("/password-reset/confirm", authH.ConfirmReset)
	})

	// Admin routes (require admin key).
	r.Route("/api/v1/admin", func(ar chi.Router) {
		ar.Use(auth.AdminKeyMiddleware(deps.AdminKey))

		ar.Get("/accounts", admin.ListAccounts)
		ar.Put("/accounts/{id}/lock", admin.SetLocked)
		if deps.Metrics != nil {
			ar.Get("/metrics", deps.Metrics.Handler())
		}
	})

	// Session-authed routes.
	r.Group(func(ar chi.Router) {
		ar.Use(binder.middleware)

		ar.Get("/api/v1/me", authH.Me)
		ar.Put("/api/v1/me/preferences", me.UpdatePreferences)
		ar.Put("/api/v1/me/active-project", me.SetActiveProject)

		ar.Get("/api/v1/projects", projects.ListProjects)
		ar.Post("/api/v1/projects", projects.CreateProject)
		ar.Get("/api/v1/projects/{id}", projects.GetProject)
		ar.Put("/api/v1/projects/{id}", projects.UpdateProject)
		ar.Delete("/api/v1/projects/{id}", projects.DeleteProject)
	})

	return r
}
