package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Dan9191/auth-service/internal/models"
	"github.com/Dan9191/auth-service/internal/utils/httpresp"
	"github.com/samber/oops"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	user     *models.User
	err      error
	gotToken string
}

func (f *fakeAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	f.gotToken = token
	if f.err != nil {
		return nil, f.err
	}
	return f.user, nil
}

func guarded(t *testing.T, authn Authenticator) (http.Handler, *bool, **models.User) {
	t.Helper()
	log, _ := test.NewNullLogger()
	called := false
	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	return AuthMiddleware(authn, log)(next), &called, &seen
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc", "abc"},
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"Token abc", ""},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		assert.Equal(t, tt.want, BearerToken(r), "header %q", tt.header)
	}
}

func TestAuthMiddleware_AttachesUser(t *testing.T) {
	user := &models.User{ID: "u-1", Email: "a@x.com", IsActive: true}
	authn := &fakeAuthenticator{user: user}
	h, called, seen := guarded(t, authn)

	r := httptest.NewRequest(http.MethodGet, "/auth", nil)
	r.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.True(t, *called)
	require.NotNil(t, *seen)
	assert.Equal(t, "u-1", (*seen).ID)
	assert.Equal(t, "good-token", authn.gotToken)
}

func TestAuthMiddleware_Unauthorized(t *testing.T) {
	authn := &fakeAuthenticator{err: oops.Code("UNAUTHORIZED").Errorf("Invalid token")}
	h, called, _ := guarded(t, authn)

	r := httptest.NewRequest(http.MethodGet, "/auth", nil)
	r.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, *called)

	var body httpresp.ErrorBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, 401, body.StatusCode)
	assert.Equal(t, "Invalid token", body.Message)
	assert.Equal(t, "Unauthorized", body.Error)
}

func TestAuthMiddleware_MissingHeaderPassesEmptyToken(t *testing.T) {
	authn := &fakeAuthenticator{err: oops.Code("UNAUTHORIZED").Errorf("There is no bearer token")}
	h, called, _ := guarded(t, authn)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, *called)
	assert.Equal(t, "", authn.gotToken)
}

func TestAuthMiddleware_InternalError(t *testing.T) {
	authn := &fakeAuthenticator{err: errors.New("db down")}
	h, called, _ := guarded(t, authn)

	r := httptest.NewRequest(http.MethodGet, "/auth", nil)
	r.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, *called)
	assert.NotContains(t, w.Body.String(), "db down")
}

func TestUserFromContext_Empty(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)
}

func TestLoggingMiddleware(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	h := LoggingMiddleware(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/auth/login", nil))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "http request", entry.Message)
	assert.Equal(t, http.StatusTeapot, entry.Data["status"])
	assert.Equal(t, "/auth/login", entry.Data["path"])
	assert.Equal(t, 15, entry.Data["size"])
}
