package middleware

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/contextkeys"
	"github.com/platinummonkey/vetrina/pkg/httputil"
	"github.com/platinummonkey/vetrina/pkg/session"
)

// UserResolver turns a request's cookies into a verified identity, or
// nil when the request carries no usable session
type UserResolver interface {
	ResolveCurrentUser(ctx context.Context, cookies session.CookieAccessor) (*auth.SafeUser, error)
}

// AuthMiddleware resolves the session cookie on every request and, when
// it maps to a live session, attaches the user to the request context.
// It never rejects: per-route authorization is RequireUser and
// RequireAdmin's job.
type AuthMiddleware struct {
	resolver UserResolver
	log      *logrus.Logger
}

// NewAuthMiddleware creates a new session-resolving middleware
func NewAuthMiddleware(resolver UserResolver, log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, log: log}
}

// Handler wraps an HTTP handler with session resolution
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolver.ResolveCurrentUser(r.Context(), r)
		if err != nil {
			// Store failure, not an auth failure. Proceeding
			// unauthenticated would turn an outage into silent
			// logouts.
			m.log.WithError(err).Error("session resolution failed")
			httputil.WriteInternalError(w, err)
			return
		}
		if user != nil {
			ctx := context.WithValue(r.Context(), contextkeys.UserKey, user)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser extracts the authenticated user from the request, or nil
// for anonymous requests
func CurrentUser(r *http.Request) *auth.SafeUser {
	user, _ := r.Context().Value(contextkeys.UserKey).(*auth.SafeUser)
	return user
}

// RequireUser rejects unauthenticated requests with 401
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r) == nil {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects unauthenticated requests with 401 and
// authenticated non-admins with 403. The two codes are distinct so
// clients can tell "log in first" from "not allowed".
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		if !user.IsAdmin() {
			httputil.WriteForbidden(w, "admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
