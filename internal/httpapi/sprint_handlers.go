package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fusionhub.org/internal/audit"
	"fusionhub.org/internal/auth"
	"fusionhub.org/internal/sprint"
	"fusionhub.org/internal/stream"
)

type createSprintRequest struct {
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Goal      string    `json:"goal"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type updateSprintRequest struct {
	Name      *string    `json:"name"`
	Goal      *string    `json:"goal"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

type assignTaskRequest struct {
	TaskID string `json:"task_id"`
}

func (a *API) handleSprintCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermSprintManage)
	if !ok {
		return
	}
	var req createSprintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sp, err := a.sprints.Create(r.Context(), principal.TenantID(), sprint.CreateInput{
		ProjectID: req.ProjectID,
		Name:      req.Name,
		Goal:      req.Goal,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		handleSprintError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "sprint.create", map[string]any{"sprint_id": sp.ID})
	a.publish(stream.EventSprintCreated, sp.TenantID, sp.ID, sp.ProjectID, principal.User.ID)
	writeJSON(w, http.StatusCreated, sp)
}

func (a *API) handleSprintGet(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermSprintView)
	if !ok {
		return
	}
	sp, err := a.sprints.Get(r.Context(), principal.TenantID(), chi.URLParam(r, "id"))
	if err != nil {
		handleSprintError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (a *API) handleSprintsByProject(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermSprintView)
	if !ok {
		return
	}
	items, err := a.sprints.ListByProject(r.Context(), principal.TenantID(), chi.URLParam(r, "projectID"))
	if err != nil {
		handleSprintError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleSprintUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermSprintManage)
	if !ok {
		return
	}
	var req updateSprintRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	sp, err := a.sprints.Update(r.Context(), principal.TenantID(), chi.URLParam(r, "id"), sprint.UpdateInput{
		Name:      req.Name,
		Goal:      req.Goal,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		handleSprintError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "sprint.update", map[string]any{"sprint_id": sp.ID})
	a.publish(stream.EventSprintUpdated, sp.TenantID, sp.ID, sp.ProjectID, principal.User.ID)
	writeJSON(w, http.StatusOK, sp)
}

func (a *API) handleSprintStart(w http.ResponseWriter, r *http.Request) {
	a.handleSprintTransition(w, r, "start")
}

func (a *API) handleSprintClose(w http.ResponseWriter, r *http.Request) {
	a.handleSprintTransition(w, r, "close")
}

func (a *API) handleSprintTransition(w http.ResponseWriter, r *http.Request, op string) {
	principal, ok := a.ensurePermission(w, r, auth.PermSprintManage)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	var (
		sp  *sprint.Sprint
		err error
	)
	eventType := stream.EventSprintStarted
	if op == "close" {
		sp, err = a.sprints.Close(r.Context(), principal.TenantID(), id)
		eventType = stream.EventSprintClosed
	} else {
		sp, err = a.sprints.Start(r.Context(), principal.TenantID(), id)
	}
	if err != nil {
		handleSprintError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "sprint."+op, map[string]any{"sprint_id": sp.ID})
	a.publish(eventType, sp.TenantID, sp.ID, sp.ProjectID, principal.User.ID)
	writeJSON(w, http.StatusOK, sp)
}

func (a *API) handleSprintAssignTask(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermSprintManage)
	if !ok {
		return
	}
	var req assignTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.sprints.AssignTask(r.Context(), principal.TenantID(), id, req.TaskID); err != nil {
		handleSprintError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "sprint.assign_task", map[string]any{
		"sprint_id": id,
		"task_id":   req.TaskID,
	})
	a.publish(stream.EventTaskAssigned, principal.TenantID(), id, "", principal.User.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleSprintTasks(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermSprintView)
	if !ok {
		return
	}
	tasks, err := a.sprints.Tasks(r.Context(), principal.TenantID(), chi.URLParam(r, "id"))
	if err != nil {
		handleSprintError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": tasks})
}
