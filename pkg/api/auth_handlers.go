package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/httputil"
	"github.com/platinummonkey/vetrina/pkg/middleware"
	"github.com/platinummonkey/vetrina/pkg/observability"
	"github.com/platinummonkey/vetrina/pkg/session"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

// AuthHandlers handles login, logout, and identity lookup
type AuthHandlers struct {
	users         *storage.UserStore
	registry      *session.Registry
	tokens        *auth.TokenManager
	log           *logrus.Logger
	metrics       *observability.Metrics
	tokenValidity time.Duration
	secureCookies bool
	loginLimiter  func(http.Handler) http.Handler
}

// NewAuthHandlers creates a new auth handlers instance
func NewAuthHandlers(users *storage.UserStore, registry *session.Registry, tokens *auth.TokenManager, log *logrus.Logger, metrics *observability.Metrics, tokenValidity time.Duration, secureCookies bool) *AuthHandlers {
	return &AuthHandlers{
		users:         users,
		registry:      registry,
		tokens:        tokens,
		log:           log,
		metrics:       metrics,
		tokenValidity: tokenValidity,
		secureCookies: secureCookies,
	}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	login := http.Handler(http.HandlerFunc(h.login))
	if h.loginLimiter != nil {
		login = h.loginLimiter(login)
	}
	router.Handle("/login", login).Methods("POST")
	router.HandleFunc("/logout", h.logout).Methods("POST")
	router.HandleFunc("/me", h.me).Methods("GET")
}

func (h *AuthHandlers) countLogin(result string) {
	if h.metrics != nil {
		h.metrics.LoginAttemptsTotal.WithLabelValues(result).Inc()
	}
}

// login handles POST /api/login. Unknown usernames and wrong passwords
// produce the same response, so the endpoint cannot be used to probe
// which accounts exist.
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		httputil.WriteValidationError(w, "username and password are required")
		return
	}

	user, err := h.users.FindByUsername(r.Context(), req.Username)
	if errors.Is(err, storage.ErrNotFound) {
		h.countLogin("failure")
		httputil.WriteUnauthorized(w, "invalid credentials")
		return
	}
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		h.countLogin("failure")
		httputil.WriteUnauthorized(w, "invalid credentials")
		return
	}

	token, expiresAt, err := h.tokens.Issue(user.Safe())
	if err != nil {
		httputil.WriteInternalError(w, err)
		return
	}
	if _, err := h.registry.Create(r.Context(), user.ID, token, expiresAt); err != nil {
		httputil.WriteInternalError(w, err)
		return
	}

	session.SetCookie(w, token, h.tokenValidity, h.secureCookies)
	h.countLogin("success")
	h.log.WithFields(logrus.Fields{
		"user_id":  user.ID,
		"username": user.Username,
	}).Info("user logged in")

	httputil.WriteSuccess(w, loginResponse{User: user.Safe(), ExpiresAt: expiresAt})
}

// logout handles POST /api/logout. It always succeeds: revoking an
// already-dead session and logging out without one are both fine, and
// the cookie is cleared either way.
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	if token := session.TokenFromCookies(r); token != "" {
		if err := h.registry.DeleteByToken(r.Context(), token); err != nil {
			// The cookie still gets cleared; the registry row is
			// swept by the cleaner if this delete failed
			h.log.WithError(err).Warn("session revocation failed during logout")
		}
	}

	session.ClearCookie(w, h.secureCookies)
	httputil.WriteSuccessMessage(w, "logged out", nil)
}

// me handles GET /api/me, returning the resolved identity
func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	user := middleware.CurrentUser(r)
	if user == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	httputil.WriteSuccess(w, user)
}
