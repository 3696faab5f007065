package httpapi

import (
	"net/http"
	"sort"

	"fusionhub.org/internal/audit"
	"fusionhub.org/internal/auth"
)

type loginRequest struct {
	TenantCode string `json:"tenant_code"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type registerRequest struct {
	TenantCode string `json:"tenant_code"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type checkPermissionRequest struct {
	Permission string `json:"permission"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	pair, principal, err := a.auth.Login(r.Context(), req.TenantCode, req.Email, req.Password)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.login", map[string]any{
		"user_id":   principal.User.ID,
		"tenant_id": principal.User.TenantID,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"tokens": pair,
		"user":   principal.User,
	})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.Register(r.Context(), auth.RegisterInput{
		TenantCode: req.TenantCode,
		Email:      req.Email,
		Password:   req.Password,
		FullName:   req.FullName,
		RoleName:   req.Role,
	})
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.register", map[string]any{
		"user_id":   user.ID,
		"tenant_id": user.TenantID,
	})
	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	pair, err := a.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	a.auth.Logout(principal.Claims)
	_ = audit.LogEvent(r.Context(), "auth.logout", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	perms := make([]string, 0, len(principal.Permissions))
	for key := range principal.Permissions {
		perms = append(perms, key)
	}
	sort.Strings(perms)
	writeJSON(w, http.StatusOK, map[string]any{
		"user":        principal.User,
		"permissions": perms,
	})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.ChangePassword(r.Context(), principal.User.ID, req.OldPassword, req.NewPassword); err != nil {
		handleAuthError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "auth.change_password", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCheckPermission(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req checkPermissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	allowed := a.auth.Authorize(r.Context(), principal.User, principal.TenantID(), req.Permission)
	writeJSON(w, http.StatusOK, map[string]any{
		"permission": req.Permission,
		"allowed":    allowed,
	})
}
