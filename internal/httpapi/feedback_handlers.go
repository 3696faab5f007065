package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fusionhub.org/internal/audit"
	"fusionhub.org/internal/auth"
	"fusionhub.org/internal/feedback"
	"fusionhub.org/internal/stream"
)

type createFeedbackRequest struct {
	ProjectID      string   `json:"project_id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Priority       string   `json:"priority"`
	Source         string   `json:"source"`
	AttachmentURLs []string `json:"attachment_urls"`
}

type updateFeedbackRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Priority *string `json:"priority"`
	Status   *string `json:"status"`
}

func (a *API) handleFeedbackCreate(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermFeedbackCreate)
	if !ok {
		return
	}
	var req createFeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	fb, err := a.feedback.Create(r.Context(), principal.TenantID(), principal.User.ID, feedback.CreateInput{
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Content:        req.Content,
		Priority:       feedback.Priority(req.Priority),
		Source:         feedback.Source(req.Source),
		AttachmentURLs: req.AttachmentURLs,
	})
	if err != nil {
		handleFeedbackError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "feedback.create", map[string]any{"feedback_id": fb.ID})
	a.publish(stream.EventFeedbackCreated, fb.TenantID, fb.ID, fb.ProjectID, principal.User.ID)
	writeJSON(w, http.StatusCreated, fb)
}

func (a *API) handleFeedbackList(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermFeedbackView)
	if !ok {
		return
	}
	items, err := a.feedback.List(r.Context(), principal.TenantID())
	if err != nil {
		handleFeedbackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleFeedbackGet(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermFeedbackView)
	if !ok {
		return
	}
	fb, err := a.feedback.Get(r.Context(), principal.TenantID(), chi.URLParam(r, "id"))
	if err != nil {
		handleFeedbackError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

func (a *API) handleFeedbackUpdate(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermFeedbackUpdate)
	if !ok {
		return
	}
	var req updateFeedbackRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	in := feedback.UpdateInput{Title: req.Title, Content: req.Content}
	if req.Priority != nil {
		p := feedback.Priority(*req.Priority)
		in.Priority = &p
	}
	if req.Status != nil {
		s := feedback.Status(*req.Status)
		in.Status = &s
	}
	fb, err := a.feedback.Update(r.Context(), principal.TenantID(), chi.URLParam(r, "id"), in)
	if err != nil {
		handleFeedbackError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "feedback.update", map[string]any{"feedback_id": fb.ID})
	a.publish(stream.EventFeedbackUpdated, fb.TenantID, fb.ID, fb.ProjectID, principal.User.ID)
	writeJSON(w, http.StatusOK, fb)
}

func (a *API) handleFeedbackDelete(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermFeedbackDelete)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := a.feedback.Delete(r.Context(), principal.TenantID(), id); err != nil {
		handleFeedbackError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "feedback.delete", map[string]any{"feedback_id": id})
	a.publish(stream.EventFeedbackDeleted, principal.TenantID(), id, "", principal.User.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleFeedbackConvert(w http.ResponseWriter, r *http.Request) {
	principal, ok := a.ensurePermission(w, r, auth.PermTaskCreate)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	t, err := a.feedback.ConvertToTask(r.Context(), principal.TenantID(), id, principal.User.ID)
	if err != nil {
		handleFeedbackError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "feedback.convert", map[string]any{
		"feedback_id": id,
		"task_id":     t.ID,
	})
	a.publish(stream.EventFeedbackConverted, t.TenantID, id, t.ProjectID, principal.User.ID)
	writeJSON(w, http.StatusCreated, t)
}

func (a *API) publish(eventType, tenantID, entityID, projectID, actorID string) {
	if a.stream == nil {
		return
	}
	a.stream.Publish(stream.Event{
		Type:      eventType,
		TenantID:  tenantID,
		EntityID:  entityID,
		ProjectID: projectID,
		ActorID:   actorID,
	})
}
