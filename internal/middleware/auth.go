// Package middleware provides the HTTP middleware chain for the dashboard.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/insightlabs/analytics-dashboard/internal/auth"
	"github.com/insightlabs/analytics-dashboard/internal/httputil"
	"github.com/insightlabs/analytics-dashboard/pkg/logger"
)

type contextKey string

const identityKey contextKey = "identity"

// AuthMiddleware guards routes with bearer-token authentication.
type AuthMiddleware struct {
	authn        *auth.Authenticator
	log          *logger.Logger
	skipPaths    map[string]bool
	skipPrefixes []string
}

// NewAuthMiddleware creates the authentication middleware. Requests to
// skipPaths (exact match) or skipPrefixes pass through unauthenticated.
func NewAuthMiddleware(authn *auth.Authenticator, log *logger.Logger, skipPaths, skipPrefixes []string) *AuthMiddleware {
	skip := make(map[string]bool)
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{
		authn:        authn,
		log:          log,
		skipPaths:    skip,
		skipPrefixes: skipPrefixes,
	}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		for _, prefix := range m.skipPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		identity, err := m.authn.Authenticate(r)
		if err != nil {
			m.log.WithError(err).WithFields(map[string]interface{}{
				"path":   r.URL.Path,
				"method": r.Method,
			}).Warn("authentication failed")
			httputil.WriteError(w, http.StatusUnauthorized, authErrorCode(err), "authentication failed")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func authErrorCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, auth.ErrExpired):
		return "token_expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid_signature"
	default:
		return "invalid_token"
	}
}

// WithIdentity stores the identity on the context.
func WithIdentity(ctx context.Context, id *auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom returns the request identity, or nil for unauthenticated
// (skipped) routes.
func IdentityFrom(ctx context.Context) *auth.Identity {
	id, _ := ctx.Value(identityKey).(*auth.Identity)
	return id
}
