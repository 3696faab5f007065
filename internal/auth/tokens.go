package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultIssuer     = "fusionhub"
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 24 * time.Hour * 14

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// Claims are the JWT claims carried by both tokens of a pair. The family id
// links every refresh rotation back to the original login, so revocation can
// target the whole lineage.
type Claims struct {
	TenantID  string `json:"tenant"`
	Role      string `json:"role,omitempty"`
	TokenType string `json:"token_type"`
	FamilyID  string `json:"fam,omitempty"`
	jwt.RegisteredClaims
}

// TokenService issues, validates and refreshes signed session tokens. It is
// stateless apart from the signing key, which is read-only for the process
// lifetime, and the in-memory family denylist.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	creds      CredentialStore
	denylist   *Denylist
	now        func() time.Time
}

// TokenOption configures TokenService behavior.
type TokenOption func(*TokenService)

// WithIssuer overrides the token issuer claim.
func WithIssuer(issuer string) TokenOption {
	return func(s *TokenService) {
		if v := strings.TrimSpace(issuer); v != "" {
			s.issuer = v
		}
	}
}

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL configures refresh token lifetime.
func WithRefreshTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenService constructs a TokenService. A missing signing secret is a
// configuration error: the caller is expected to treat it as fatal at
// startup, never as a per-request failure.
func NewTokenService(secret []byte, creds CredentialStore, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is not configured")
	}
	if creds == nil {
		return nil, errors.New("auth: credential store is required")
	}
	s := &TokenService{
		secret:     secret,
		issuer:     defaultIssuer,
		accessTTL:  defaultAccessTTL,
		refreshTTL: defaultRefreshTTL,
		creds:      creds,
		denylist:   NewDenylist(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a fresh token pair for the user, starting a new token family.
func (s *TokenService) Issue(user *User) (TokenPair, error) {
	if user == nil || user.ID == "" {
		return TokenPair{}, ErrInvalidInput
	}
	return s.issuePair(user, uuid.NewString())
}

func (s *TokenService) issuePair(user *User, familyID string) (TokenPair, error) {
	now := s.now().UTC()
	accessExp := now.Add(s.accessTTL)
	refreshExp := now.Add(s.refreshTTL)

	access, err := s.sign(Claims{
		TenantID:  user.TenantID,
		Role:      user.RoleID,
		TokenType: tokenTypeAccess,
		FamilyID:  familyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
			ID:        uuid.NewString(),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := s.sign(Claims{
		TenantID:  user.TenantID,
		TokenType: tokenTypeRefresh,
		FamilyID:  familyID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			ID:        uuid.NewString(),
		},
	})
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *TokenService) sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate checks signature, expiry and the family denylist of an access
// token and returns its claims. Tampered, expired and revoked tokens are
// indistinguishable to the caller; errors.Is against the concrete reasons is
// available for logging.
func (s *TokenService) Validate(token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrTokenMalformed
	}
	if s.denylist.Revoked(claims.TenantID, claims.FamilyID) {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Refresh validates a refresh token, re-derives the subject from the
// credential store (a deactivated user must fail even with a structurally
// valid token) and issues a rotated pair in the same family.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return TokenPair{}, ErrTokenMalformed
	}
	if s.denylist.Revoked(claims.TenantID, claims.FamilyID) {
		return TokenPair{}, ErrTokenRevoked
	}

	user, err := s.creds.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return TokenPair{}, ErrUnauthorized
		}
		return TokenPair{}, errors.Join(ErrUnavailable, err)
	}
	if !user.Active {
		return TokenPair{}, ErrSubjectInactive
	}
	if user.TenantID != claims.TenantID {
		return TokenPair{}, ErrUnauthorized
	}

	// Rotation keeps the family id so revocation-by-family covers the
	// whole lineage of this login.
	return s.issuePair(user, claims.FamilyID)
}

// Revoke invalidates every token in the claims' family for the remainder of
// the refresh lifetime.
func (s *TokenService) Revoke(claims *Claims) {
	if claims == nil || claims.FamilyID == "" {
		return
	}
	until := s.now().Add(s.refreshTTL)
	if claims.ExpiresAt != nil && claims.TokenType == tokenTypeRefresh {
		until = claims.ExpiresAt.Time
	}
	s.denylist.Revoke(claims.TenantID, claims.FamilyID, until)
}

func (s *TokenService) parse(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMalformed
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrSignatureInvalid
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Issuer != s.issuer || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
