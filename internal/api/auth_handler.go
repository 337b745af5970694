package api

import (
	"errors"
	"net/http"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/auth"
	"github.com/clouddwh/architect/internal/identity"
	"github.com/clouddwh/architect/internal/session"
)

// authEvents counts authentication outcomes; *metrics.Metrics satisfies it.
type authEvents interface {
	IncAuthEvent(event, outcome string)
}

type noEvents struct{}

func (noEvents) IncAuthEvent(string, string) {}

// authHandler groups the unauthenticated account entry points.
type authHandler struct {
	binder   *sessionBinder
	accounts *account.Service
	resets   *identity.Resets
	events   authEvents
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	if code, ok := identity.CodeOf(err); ok {
		return string(code)
	}
	var fe account.FieldErrors
	if errors.As(err, &fe) {
		return "validation"
	}
	return "error"
}

// Register handles POST /api/v1/auth/register. New accounts start locked, so
// the identity is signed out again right away.
func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg account.Registration
	if err := readJSON(r, &reg); err != nil {
		writeInvalidBody(w, r)
		return
	}

	a := identity.NewAuth(h.binder.provider)
	acc, err := h.accounts.Create(r.Context(), a, reg)
	h.events.IncAuthEvent("register", outcome(err))
	if err != nil {
		writeServiceError(w, r, err, "account")
		return
	}
	if err := h.accounts.Logout(r.Context(), a); err != nil {
		writeServiceError(w, r, err, "account")
		return
	}

	auditLog(r, "register", "account", acc.ID, "email", acc.Data.Profile.Email)
	l := localizer(r)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"account": viewOf(acc),
		"message": l.T("authentication.register.dialog.message"),
	})
}

// Login handles POST /api/v1/auth/login.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeInvalidBody(w, r)
		return
	}

	a := identity.NewAuth(h.binder.provider)
	acc, err := h.accounts.Login(r.Context(), a, req.Email, req.Password)
	h.events.IncAuthEvent("sign_in", outcome(err))
	if err != nil {
		writeServiceError(w, r, err, "account")
		return
	}

	sess, _, err := h.binder.open(r.Context(), a)
	if err != nil {
		writeServiceError(w, r, err, "account")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":    sess.Token,
		"account":  viewOf(acc),
		"projects": projectViews(sess.State.Projects()),
	})
}

// Logout handles POST /api/v1/auth/logout. Unknown or missing tokens are
// answered with 204 as well.
func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := auth.BearerToken(r)
	if token == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var err error
	if sess, ok := h.binder.sessions.Get(token); ok {
		err = h.accounts.Logout(r.Context(), sess.Auth)
		h.binder.sessions.Close(token)
	} else {
		err = h.binder.provider.SignOut(r.Context(), token)
	}
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RequestReset handles POST /api/v1/auth/password-reset. The answer does not
// reveal whether the address is registered.
func (h *authHandler) RequestReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := readJSON(r, &req); err != nil {
		writeInvalidBody(w, r)
		return
	}

	err := h.resets.Send(r.Context(), req.Email)
	h.events.IncAuthEvent("password_reset", outcome(err))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": localizer(r).T("authentication.reset.dialog.message", "email", identity.NormalizeEmail(req.Email)),
	})
}

// ConfirmReset handles POST /api/v1/auth/password-reset/confirm.
func (h *authHandler) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeInvalidBody(w, r)
		return
	}

	uid, err := h.resets.Confirm(r.Context(), req.Token, req.Password)
	h.events.IncAuthEvent("password_reset_confirm", outcome(err))
	if err != nil {
		writeServiceError(w, r, err, "")
		return
	}

	// The provider revoked every token of uid; drop the matching sessions.
	h.binder.sessions.CloseUser(uid)
	auditLog(r, "password_reset", "account", uid)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": localizer(r).T("authentication.reset.done"),
	})
}

// Me handles GET /api/v1/me.
func (h *authHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	writeJSON(w, http.StatusOK, meView(sess))
}

func meView(sess *session.Session) map[string]interface{} {
	return map[string]interface{}{
		"account":  viewOf(sess.State.Account()),
		"name":     sess.State.AccountName(),
		"projects": projectViews(sess.State.Projects()),
	}
}
