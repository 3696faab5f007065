package auth

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrForbidden    = errors.New("auth: forbidden")
	ErrNotFound     = errors.New("auth: not found")
	ErrConflict     = errors.New("auth: already exists")
	ErrInvalidInput = errors.New("auth: invalid input")
	ErrUnavailable  = errors.New("auth: backend unavailable")
)

// Token failure reasons. All of them wrap ErrUnauthorized so callers at the
// boundary see a single outcome (no validity oracle), while logs can still
// tell them apart.
var (
	ErrTokenExpired     = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrTokenMalformed   = fmt.Errorf("%w: token malformed", ErrUnauthorized)
	ErrSignatureInvalid = fmt.Errorf("%w: token signature invalid", ErrUnauthorized)
	ErrSubjectInactive  = fmt.Errorf("%w: subject inactive", ErrUnauthorized)
	ErrTokenRevoked     = fmt.Errorf("%w: token revoked", ErrUnauthorized)
)
