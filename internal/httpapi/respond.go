package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"fusionhub.org/internal/auth"
	"fusionhub.org/internal/feedback"
	"fusionhub.org/internal/project"
	"fusionhub.org/internal/sprint"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	payload := map[string]any{
		"error": msg,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, code, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

// handleAuthError maps auth failures to statuses. Every token problem is a
// plain 401 with a single message: the response never reveals whether the
// token was expired, tampered with or belonged to a deactivated account.
func handleAuthError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, auth.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "permission denied")
	case errors.Is(err, auth.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrConflict):
		writeError(w, r, http.StatusConflict, "already exists")
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, auth.ErrUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func handleProjectError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, project.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, project.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, project.ErrUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func handleFeedbackError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, feedback.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, feedback.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, feedback.ErrInvalidTransition),
		errors.Is(err, feedback.ErrAlreadyConverted):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, feedback.ErrUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func handleSprintError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sprint.ErrInvalidInput),
		errors.Is(err, sprint.ErrProjectMismatch):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, sprint.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, sprint.ErrInvalidTransition),
		errors.Is(err, sprint.ErrSprintLocked):
		writeError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, sprint.ErrUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "service unavailable")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
