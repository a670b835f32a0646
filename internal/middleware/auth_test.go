package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fakePrincipalStore struct {
	ids map[string]bool
}

func (f *fakePrincipalStore) Exists(ctx context.Context, id string) (bool, error) {
	return f.ids[id], nil
}

func signToken(t *testing.T, secret, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": "u@example.com",
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authTestHandler(t *testing.T) (http.Handler, *string) {
	t.Helper()
	var seenUserID string
	users := &fakePrincipalStore{ids: map[string]bool{"user-1": true}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUserID, _ = r.Context().Value(UserIDKey).(string)
		w.WriteHeader(http.StatusOK)
	})
	return RequireAuth(testSecret, users)(next), &seenUserID
}

func do(handler http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestRequireAuthNoToken(t *testing.T) {
	handler, _ := authTestHandler(t)

	for _, header := range []string{"", "Basic abc", "Bearer"} {
		rec := do(handler, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Not authorized, no token", message(t, rec))
	}
}

func TestRequireAuthTokenFailed(t *testing.T) {
	handler, _ := authTestHandler(t)

	for _, token := range []string{
		"Bearer not-a-jwt",
		"Bearer " + signToken(t, "wrong-secret", "user-1"),
	} {
		rec := do(handler, token)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Not authorized, token failed", message(t, rec))
	}
}

func TestRequireAuthUserNotFound(t *testing.T) {
	handler, _ := authTestHandler(t)

	rec := do(handler, "Bearer "+signToken(t, testSecret, "deleted-user"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authorized, user not found", message(t, rec))
}

func TestRequireAuthSuccess(t *testing.T) {
	handler, seenUserID := authTestHandler(t)

	rec := do(handler, "Bearer "+signToken(t, testSecret, "user-1"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", *seenUserID)
}
