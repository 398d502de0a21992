package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/httputil"
	"github.com/platinummonkey/vetrina/pkg/middleware"
	"github.com/platinummonkey/vetrina/pkg/session"
	"github.com/platinummonkey/vetrina/pkg/sso"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

// stateCookieName carries the OIDC state between redirect and callback
const stateCookieName = "sso_state"

// SSOHandlers drives the OIDC login flow and maps provider identities
// onto local accounts
type SSOHandlers struct {
	authn         *sso.Authenticator
	users         *storage.UserStore
	registry      *session.Registry
	tokens        *auth.TokenManager
	log           *logrus.Logger
	tokenValidity time.Duration
	secureCookies bool
}

// NewSSOHandlers creates a new SSO handlers instance
func NewSSOHandlers(authn *sso.Authenticator, users *storage.UserStore, registry *session.Registry, tokens *auth.TokenManager, log *logrus.Logger, tokenValidity time.Duration, secureCookies bool) *SSOHandlers {
	return &SSOHandlers{
		authn:         authn,
		users:         users,
		registry:      registry,
		tokens:        tokens,
		log:           log,
		tokenValidity: tokenValidity,
		secureCookies: secureCookies,
	}
}

// RegisterRoutes registers SSO routes
func (h *SSOHandlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/sso/login", h.login).Methods("GET")
	router.HandleFunc("/sso/callback", h.callback).Methods("GET")
}

// login handles GET /api/sso/login, redirecting to the provider
func (h *SSOHandlers) login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Path:     "/api/sso",
		MaxAge:   300,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	h.authn.InitiateLogin(w, r, state)
}

// callback handles GET /api/sso/callback: verifies state, exchanges
// the code, provisions the account on first login, and opens a session
func (h *SSOHandlers) callback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(stateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		httputil.WriteBadRequest(w, "state mismatch")
		return
	}

	identity, err := h.authn.HandleCallback(r.Context(), r)
	if err != nil {
		h.log.WithError(err).Warn("SSO callback failed")
		httputil.WriteUnauthorized(w, "SSO login failed")
		return
	}

	user, err := h.findOrProvision(r, identity)
	if err != nil {
		httputil.WriteInternalError(w, err)
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
	h.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"subject": identity.Subject,
	}).Info("user logged in via SSO")

	http.Redirect(w, r, middleware.HomePath, http.StatusFound)
}

// findOrProvision maps a provider identity to a local account by
// email, creating a regular user on first login. SSO accounts get an
// unguessable password so the credential form cannot be used for them.
func (h *SSOHandlers) findOrProvision(r *http.Request, identity *sso.Identity) (*auth.User, error) {
	user, err := h.users.FindByEmail(r.Context(), identity.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(uuid.NewString())
	if err != nil {
		return nil, err
	}

	username := identity.Username
	if username == "" {
		username = identity.Email
	}
	return h.users.Create(r.Context(), username, hash, identity.Email, auth.RoleUser)
}
