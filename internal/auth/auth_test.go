package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func TestParseValidToken(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"iss":       "i5e.identity",
		"sub":       "u1",
		"tenant_id": "t1",
		"scopes":    "recipes:read recipes:write",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	claims, err := Parse(signed, Config{Secret: testSecret, Issuer: "i5e.identity"})
	require.NoError(t, err)
	require.Equal(t, "u1", claims.Subject)
	require.Equal(t, "t1", claims.TenantID)
	require.True(t, claims.HasScope(ScopeRecipesRead))
	require.True(t, claims.HasScope(ScopeRecipesWrite))
	require.False(t, claims.HasScope(ScopeUsersAdmin))
}

func TestParseRejectsMissingTenant(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"iss": "i5e.identity",
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := Parse(signed, Config{Secret: testSecret, Issuer: "i5e.identity"})
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	signed := signToken(t, jwt.MapClaims{
		"iss":       "someone-else",
		"sub":       "u1",
		"tenant_id": "t1",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	_, err := Parse(signed, Config{Secret: testSecret, Issuer: "i5e.identity"})
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddlewareSkipsHealthAndMetrics(t *testing.T) {
	mw := NewMiddleware(Config{Secret: testSecret, Issuer: "i5e.identity"})

	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/healthz", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/recipes", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMiddlewarePropagatesClaims(t *testing.T) {
	mw := NewMiddleware(Config{Secret: testSecret, Issuer: "i5e.identity"})

	signed := signToken(t, jwt.MapClaims{
		"iss":       "i5e.identity",
		"sub":       "u1",
		"tenant_id": "t1",
		"scopes":    []string{"recipes:read"},
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	var seen *Claims
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/recipes", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	require.Equal(t, "t1", seen.TenantID)
	require.True(t, seen.HasScope(ScopeRecipesRead))
}
