package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/contextkeys"
	"github.com/platinummonkey/vetrina/pkg/session"
)

type stubResolver struct {
	user *auth.SafeUser
	err  error
}

func (s *stubResolver) ResolveCurrentUser(ctx context.Context, cookies session.CookieAccessor) (*auth.SafeUser, error) {
	return s.user, s.err
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func adminUser() *auth.SafeUser {
	return &auth.SafeUser{ID: 1, Username: "admin", Role: auth.RoleAdmin}
}

func regularUser() *auth.SafeUser {
	return &auth.SafeUser{ID: 2, Username: "user", Role: auth.RoleUser}
}

func withUser(r *http.Request, user *auth.SafeUser) *http.Request {
	if user == nil {
		return r
	}
	return r.WithContext(context.WithValue(r.Context(), contextkeys.UserKey, user))
}

func TestAuthMiddleware_AttachesUser(t *testing.T) {
	m := NewAuthMiddleware(&stubResolver{user: regularUser()}, testLogger())

	var seen *auth.SafeUser
	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CurrentUser(r)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.NotNil(t, seen)
	assert.Equal(t, "user", seen.Username)
}

func TestAuthMiddleware_AnonymousPassesThrough(t *testing.T) {
	m := NewAuthMiddleware(&stubResolver{}, testLogger())

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Nil(t, CurrentUser(r))
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthMiddleware_StoreFailureIs500(t *testing.T) {
	m := NewAuthMiddleware(&stubResolver{err: errors.New("db down")}, testLogger())

	handler := m.Handler(okHandler())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequireUser(t *testing.T) {
	handler := RequireUser(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/cart", nil), regularUser()))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	handler := RequireAdmin(okHandler())

	// Anonymous: 401, sign in first
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/products", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Signed in but not admin: 403, not allowed
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/products", nil), regularUser()))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodPost, "/api/products", nil), adminUser()))
	assert.Equal(t, http.StatusOK, rec.Code)
}
