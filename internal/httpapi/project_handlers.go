package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fusionhub.org/internal/audit"
	"fusionhub.org/internal/auth"
	"fusionhub.org/internal/project"
	"fusionhub.org/internal/stream"
)

type createProjectRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
}

type updateProjectRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	EndDate     *time.Time `json:"end_date"`
}

func (a *API) handleProjectCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermProjectCreate)
	if !ok {
		return
	}
	var req createProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	p, err := a.projects.Create(r.Context(), principal.TenantID(), principal.User.ID, project.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      project.Status(req.Status),
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		handleProjectError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "project.create", map[string]any{"project_id": p.ID})
	a.publish(stream.EventProjectCreated, p.TenantID, p.ID, p.ID, principal.User.ID)
	writeJSON(w, http.StatusCreated, p)
}

func (a *API) handleProjectList(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermProjectView)
	if !ok {
		return
	}
	items, err := a.projects.List(r.Context(), principal.TenantID())
	if err != nil {
		handleProjectError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleProjectGet(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermProjectView)
	if !ok {
		return
	}
	p, err := a.projects.Get(r.Context(), principal.TenantID(), chi.URLParam(r, "projectID"))
	if err != nil {
		handleProjectError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) handleProjectUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermProjectEdit)
	if !ok {
		return
	}
	var req updateProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in := project.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		EndDate:     req.EndDate,
	}
	if req.Status != nil {
		s := project.Status(*req.Status)
		in.Status = &s
	}
	p, err := a.projects.Update(r.Context(), principal.TenantID(), chi.URLParam(r, "projectID"), in)
	if err != nil {
		handleProjectError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "project.update", map[string]any{"project_id": p.ID})
	a.publish(stream.EventProjectUpdated, p.TenantID, p.ID, p.ID, principal.User.ID)
	writeJSON(w, http.StatusOK, p)
}
