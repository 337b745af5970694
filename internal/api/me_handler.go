package api

import (
	"net/http"

	"github.com/clouddwh/architect/internal/account"
	"github.com/clouddwh/architect/internal/project"
)

// meHandler serves the signed-in account's own settings.
type meHandler struct {
	accounts *account.Service
	projects *project.Service
}

// UpdatePreferences handles PUT /api/v1/me/preferences.
func (h *meHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var prefs account.Preferences
	if err := readJSON(r, &prefs); err != nil {
		writeInvalidBody(w, r)
		return
	}

	sess := sessionFrom(r.Context())
	acc := ownCopy(sess.State.Account())
	if err := h.accounts.UpdatePreferences(r.Context(), acc, prefs); err != nil {
		writeServiceError(w, r, err, "account")
		return
	}
	sess.State.SetAccount(acc)
	writeJSON(w, http.StatusOK, viewOf(acc))
}

// SetActiveProject handles PUT /api/v1/me/active-project. A null project_id
// clears the selection.
func (h *meHandler) SetActiveProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID *string `json:"project_id"`
	}
	if err := readJSON(r, &req); err != nil {
		writeInvalidBody(w, r)
		return
	}

	sess := sessionFrom(r.Context())
	acc := ownCopy(sess.State.Account())
	if req.ProjectID != nil {
		p, err := h.projects.Load(r.Context(), *req.ProjectID)
		if err != nil {
			writeServiceError(w, r, err, "project")
			return
		}
		if !canView(p, acc.ID) {
			writeError(w, http.StatusForbidden, "forbidden", localizer(r).T("error.forbidden"))
			return
		}
	}

	if err := h.accounts.SetActiveProject(r.Context(), acc, req.ProjectID); err != nil {
		writeServiceError(w, r, err, "account")
		return
	}
	sess.State.SetAccount(acc)
	writeJSON(w, http.StatusOK, viewOf(acc))
}

// ownCopy returns a deep copy of the session's account. Handlers modify the
// copy and publish it with SetAccount once the store write succeeded.
func ownCopy(acc *account.Account) *account.Account {
	cp := *acc
	cp.Data = acc.Data.Clone()
	return &cp
}
