package api

import (
	"net/http"
	"slices"

	"github.com/clouddwh/architect/internal/authbridge"
	"github.com/clouddwh/architect/internal/project"
	"github.com/go-chi/chi/v5"
)

// projectsHandler serves the projects visible to the signed-in account.
type projectsHandler struct {
	projects *project.Service
	bridge   *authbridge.Bridge
}

func canView(p *project.Project, uid string) bool {
	return slices.Contains(p.Data.Access, uid)
}

func canEdit(p *project.Project, uid string) bool {
	return p.Data.HasRole(uid, project.RoleOwner, project.RoleManager)
}

func canDelete(p *project.Project, uid string) bool {
	return p.Data.HasRole(uid, project.RoleOwner)
}

// ListProjects handles GET /api/v1/projects. The session's project list is
// reloaded so that projects shared by other accounts show up.
func (h *projectsHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	if err := h.bridge.Refresh(r.Context(), sess.State); err != nil {
		writeServiceError(w, r, err, "project")
		return
	}
	writeJSON(w, http.StatusOK, projectViews(sess.State.Projects()))
}

// CreateProject handles POST /api/v1/projects. Without an explicit owner the
// caller owns the project; otherwise the caller must be owner or manager.
func (h *projectsHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var def project.Definition
	if err := readJSON(r, &def); err != nil {
		writeInvalidBody(w, r)
		return
	}

	sess := sessionFrom(r.Context())
	acc := sess.State.Account()
	if def.Owner.ID == "" {
		def.Owner = project.Member{ID: acc.ID, Name: acc.Data.Common.Name}
	}
	isManager := def.Manager != nil && def.Manager.ID == acc.ID
	if def.Owner.ID != acc.ID && !isManager {
		writeError(w, http.StatusForbidden, "forbidden", localizer(r).T("error.forbidden"))
		return
	}

	p, err := h.projects.Create(r.Context(), def)
	if err != nil {
		writeServiceError(w, r, err, "project")
		return
	}
	sess.State.AddProject(p)

	auditLog(r, "create", "project", p.ID, "name", p.Data.Common.Name)
	writeJSON(w, http.StatusCreated, viewOf(p))
}

// load fetches the {id} project and checks the caller may see it.
func (h *projectsHandler) load(w http.ResponseWriter, r *http.Request) (*project.Project, bool) {
	p, err := h.projects.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, "project")
		return nil, false
	}
	if !canView(p, sessionFrom(r.Context()).State.Account().ID) {
		// Invisible projects are reported as missing.
		writeError(w, http.StatusNotFound, "not_found", localizer(r).T("error.notFound", "scope", "project"))
		return nil, false
	}
	return p, true
}

// GetProject handles GET /api/v1/projects/{id}.
func (h *projectsHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, viewOf(p))
}

// UpdateProject handles PUT /api/v1/projects/{id}.
func (h *projectsHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	sess := sessionFrom(r.Context())
	uid := sess.State.Account().ID
	if !canEdit(p, uid) {
		writeError(w, http.StatusForbidden, "forbidden", localizer(r).T("error.forbidden"))
		return
	}

	var def project.Definition
	if err := readJSON(r, &def); err != nil {
		writeInvalidBody(w, r)
		return
	}
	if def.Owner.ID == "" {
		if owner, err := p.Data.Owner(); err == nil {
			def.Owner = owner
		}
	}

	if err := h.projects.Update(r.Context(), p, def); err != nil {
		writeServiceError(w, r, err, "project")
		return
	}
	if canView(p, uid) {
		sess.State.AddProject(p)
	} else {
		sess.State.RemoveProject(p.ID)
	}

	auditLog(r, "update", "project", p.ID, "name", p.Data.Common.Name)
	writeJSON(w, http.StatusOK, viewOf(p))
}

// DeleteProject handles DELETE /api/v1/projects/{id}.
func (h *projectsHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	p, ok := h.load(w, r)
	if !ok {
		return
	}
	sess := sessionFrom(r.Context())
	if !canDelete(p, sess.State.Account().ID) {
		writeError(w, http.StatusForbidden, "forbidden", localizer(r).T("error.forbidden"))
		return
	}

	if err := h.projects.Delete(r.Context(), p); err != nil {
		writeServiceError(w, r, err, "project")
		return
	}
	sess.State.RemoveProject(p.ID)

	auditLog(r, "delete", "project", p.ID)
	w.WriteHeader(http.StatusNoContent)
}
