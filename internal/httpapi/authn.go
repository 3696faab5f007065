package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"fusionhub.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

var publicPaths = []string{
	"/v1/auth/login",
	"/v1/auth/register",
	"/v1/auth/refresh",
	"/healthz",
	"/readyz",
	"/metrics",
	"/v1/info",
}

// withAuth authenticates every non-public request and attaches the principal
// to the context.
func (a *API) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}

		principal, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			handleAuthError(w, r, err)
			return
		}

		ctx := auth.ContextWithPrincipal(r.Context(), principal)
		ctx = auth.ContextWithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ensurePermission writes the error response itself; the caller just returns
// on false. Missing principal is 401, missing permission is 403.
func (a *API) ensurePermission(w http.ResponseWriter, r *http.Request, perm string) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return auth.Principal{}, false
	}
	if !principal.HasPermission(perm) {
		writeError(w, r, http.StatusForbidden, "permission denied")
		return auth.Principal{}, false
	}
	return principal, true
}

// requirePrincipal is ensurePermission without a permission check, for
// endpoints any authenticated user may call.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (auth.Principal, bool) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized")
		return auth.Principal{}, false
	}
	return principal, true
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}
