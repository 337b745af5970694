package api

import (
	"net/http"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/session"
	"github.com/go-chi/chi/v5"
)

// adminHandler serves account administration behind the admin key.
type adminHandler struct {
	accounts *account.Service
	sessions *session.Registry
}

// ListAccounts handles GET /api/v1/admin/accounts.
func (h *adminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "account")
		return
	}
	writeJSON(w, http.StatusOK, accountViews(accounts))
}

// SetLocked handles PUT /api/v1/admin/accounts/{id}/lock. Locking an account
// closes its open sessions; the next request with one of its tokens is
// rejected when the session is resumed.
func (h *adminHandler) SetLocked(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Locked *bool `json:"locked"`
	}
	if err := readJSON(r, &req); err != nil || req.Locked == nil {
		writeInvalidBody(w, r)
		return
	}

	id := chi.URLParam(r, "id")
	acc, err := h.accounts.SetLocked(r.Context(), id, *req.Locked)
	if err != nil {
		writeServiceError(w, r, err, "account")
		return
	}

	closed := 0
	if *req.Locked {
		closed = h.sessions.CloseUser(id)
	}
	auditLog(r, "set_locked", "account", id, "locked", *req.Locked, "sessions_closed", closed)
	writeJSON(w, http.StatusOK, viewOf(acc))
}
