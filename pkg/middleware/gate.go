package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/session"
)

// Default page-route classes. API routes are not listed here: the gate
// covers browser-navigated pages only, and JSON endpoints answer with
// status codes instead of redirects.
var (
	// DefaultProtectedPrefixes require a signed-in user
	DefaultProtectedPrefixes = []string{"/dashboard", "/products", "/cart", "/orders", "/admin"}
	// DefaultPublicOnlyPrefixes bounce signed-in users back to the app
	DefaultPublicOnlyPrefixes = []string{"/login"}
	// DefaultBypassPrefixes are never gated
	DefaultBypassPrefixes = []string{"/api/", "/static/", "/healthz", "/readyz", "/metrics", "/favicon.ico"}
)

// LoginPath is where unauthenticated visitors of protected pages land
const LoginPath = "/login"

// HomePath is where already-authenticated visitors of public-only
// pages land
const HomePath = "/dashboard"

// Gate classifies page routes and redirects based on a lightweight
// session check: it verifies the cookie token's signature and expiry
// only, without touching the database. A revoked-but-unexpired token
// passes the gate and is caught by the full resolver on the page's
// data fetches. The gate optimizes navigation; it is not the security
// boundary.
type Gate struct {
	tokens     *auth.TokenManager
	protected  []string
	publicOnly []string
	bypass     []string
}

// NewGate creates a gate with the default route classes
func NewGate(tokens *auth.TokenManager) *Gate {
	return &Gate{
		tokens:     tokens,
		protected:  DefaultProtectedPrefixes,
		publicOnly: DefaultPublicOnlyPrefixes,
		bypass:     DefaultBypassPrefixes,
	}
}

func hasPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasSuffix(p, "/") {
			if strings.HasPrefix(path, p) {
				return true
			}
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// hasPlausibleSession reports whether the request carries a token with
// a valid signature and unexpired claims
func (g *Gate) hasPlausibleSession(r *http.Request) bool {
	token := session.TokenFromCookies(r)
	if token == "" {
		return false
	}
	_, err := g.tokens.Verify(token)
	return err == nil
}

// Handler wraps an HTTP handler with page-route gating
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if hasPrefix(path, g.bypass) {
			next.ServeHTTP(w, r)
			return
		}

		authed := g.hasPlausibleSession(r)

		switch {
		case hasPrefix(path, g.protected) && !authed:
			// Preserve the destination so login can return there
			target := LoginPath + "?redirect=" + url.QueryEscape(path)
			http.Redirect(w, r, target, http.StatusFound)
		case hasPrefix(path, g.publicOnly) && authed:
			http.Redirect(w, r, HomePath, http.StatusFound)
		default:
			next.ServeHTTP(w, r)
		}
	})
}
