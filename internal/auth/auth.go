// Package auth verifies bearer tokens and derives the request identity.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/insightlabs/analytics-dashboard/internal/config"
)

// Normalized roles recognized by the dashboard.
const (
	RoleCIO       = "CIO"
	RoleArchitect = "Architect"
	RoleDeveloper = "Developer"
)

// Sentinel errors returned by Authenticate. Handlers map all of them to a
// 401 response.
var (
	ErrMissingToken     = errors.New("missing bearer token")
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
)

// Identity describes the authenticated caller for the duration of a request.
type Identity struct {
	Subject   string
	Name      string
	Role      string
	Team      string
	ExpiresAt time.Time
	Bypassed  bool
}

// DisplayName returns the best human-readable name available.
func (id *Identity) DisplayName() string {
	if id.Name != "" {
		return id.Name
	}
	return id.Subject
}

// Claims is the token payload the dashboard understands.
type Claims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role,omitempty"`
	Team string `json:"team,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator validates HS256 bearer tokens against a shared secret. When
// auth is disabled by configuration it hands out a fixed development
// identity instead.
type Authenticator struct {
	secret   []byte
	issuer   string
	audience string
	disabled bool
	now      func() time.Time
}

// Option customizes an Authenticator.
type Option func(*Authenticator)

// WithClock overrides the time source used for expiry checks. Tests use this
// to make expiry deterministic.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		a.now = now
	}
}

// New builds an Authenticator from configuration.
func New(cfg *config.Config, opts ...Option) *Authenticator {
	a := &Authenticator{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		disabled: cfg.DisableAuth,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate extracts and verifies the bearer token on r. With auth
// disabled it returns the development identity without looking at the
// request at all.
func (a *Authenticator) Authenticate(r *http.Request) (*Identity, error) {
	if a.disabled {
		return a.bypassIdentity(), nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, ErrMissingToken
	}

	return a.VerifyToken(strings.TrimSpace(parts[1]))
}

// VerifyToken validates a raw HS256 token string and builds the identity
// from its claims.
func (a *Authenticator) VerifyToken(tokenString string) (*Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	if a.audience != "" {
		opts = append(opts, jwt.WithAudience(a.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	id := &Identity{
		Subject: claims.Subject,
		Name:    claims.Name,
		Role:    NormalizeRole(claims.Role),
		Team:    claims.Team,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// bypassIdentity is the fixed identity used when DISABLE_AUTH is set. That
// mode is for local development only.
func (a *Authenticator) bypassIdentity() *Identity {
	return &Identity{
		Subject:   "devuser@example.com",
		Name:      "Dev User",
		Role:      RoleDeveloper,
		Team:      "Platform",
		ExpiresAt: a.now().Add(time.Hour),
		Bypassed:  true,
	}
}

var roleAliases = map[string]string{
	"CIO":                     RoleCIO,
	"ChiefInformationOfficer": RoleCIO,
	"Architect":               RoleArchitect,
	"EnterpriseArchitect":     RoleArchitect,
	"SystemArchitect":         RoleArchitect,
	"SolutionArchitect":       RoleArchitect,
	"Developer":               RoleDeveloper,
	"Engineer":                RoleDeveloper,
}

// NormalizeRole maps raw role claims onto the three roles the UI knows.
// Anything unrecognized becomes Developer.
func NormalizeRole(role string) string {
	if normalized, ok := roleAliases[role]; ok {
		return normalized
	}
	return RoleDeveloper
}
