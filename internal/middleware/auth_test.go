package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insightlabs/analytics-dashboard/internal/auth"
	"github.com/insightlabs/analytics-dashboard/internal/config"
	"github.com/insightlabs/analytics-dashboard/pkg/logger"
)

func testMiddleware(t *testing.T) *AuthMiddleware {
	t.Helper()
	authn := auth.New(&config.Config{JWTSecret: "secret"})
	return NewAuthMiddleware(authn, logger.NewNop(), []string{"/healthz"}, []string{"/assets/"})
}

func TestAuthMiddlewareSkipPaths(t *testing.T) {
	mw := testMiddleware(t)

	var sawIdentity *auth.Identity
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawIdentity = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/healthz", "/assets/app.css"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Nil(t, sawIdentity, "skipped paths carry no identity")
	}
}

func TestAuthMiddlewareRejectsWithoutToken(t *testing.T) {
	mw := testMiddleware(t)

	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing_token")
}

func TestAuthMiddlewarePassesIdentity(t *testing.T) {
	mw := testMiddleware(t)

	claims := auth.Claims{
		Name: "Alice",
		Role: "Engineer",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	var sawIdentity *auth.Identity
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawIdentity = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/data", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, sawIdentity)
	assert.Equal(t, "alice@example.com", sawIdentity.Subject)
	assert.Equal(t, auth.RoleDeveloper, sawIdentity.Role, "Engineer normalizes to Developer")
}
