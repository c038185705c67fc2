package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedEcho(t *testing.T) http.Handler {
	t.Helper()
	return AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, ok := GetUsername(r.Context())
		require.True(t, ok)
		w.Write([]byte(username))
	}))
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/launches", nil)

	protectedEcho(t).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Authorization header required")
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/launches", nil)
	req.Header.Set("Authorization", "Token abc123")

	protectedEcho(t).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "Bearer")
}

func TestAuthMiddleware_UnverifiableTokenRejected(t *testing.T) {
	// A token signed outside the identity provider carries no key id and must
	// be rejected before the handler runs.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("local-test-secret"))
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/launches", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	handlerRan := false
	AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
	})).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, handlerRan)
}

func TestGetUsername(t *testing.T) {
	_, ok := GetUsername(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), UsernameKey, "alice")
	username, ok := GetUsername(ctx)
	assert.True(t, ok)
	assert.Equal(t, "alice", username)
}
