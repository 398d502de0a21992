package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/session"
)

func newGateFixture(t *testing.T) (*Gate, string) {
	t.Helper()
	tokens := auth.NewTokenManager("gate-secret", auth.DefaultTokenValidity)
	token, _, err := tokens.Issue(&auth.SafeUser{ID: 1, Username: "alice", Role: auth.RoleUser})
	require.NoError(t, err)
	return NewGate(tokens), token
}

func gateRequest(path, token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	}
	return req
}

func TestGate_ProtectedRedirectsAnonymous(t *testing.T) {
	gate, _ := newGateFixture(t)
	handler := gate.Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gateRequest("/dashboard", ""))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fdashboard", rec.Header().Get("Location"))
}

func TestGate_RedirectPreservesDeepLink(t *testing.T) {
	gate, _ := newGateFixture(t)
	handler := gate.Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gateRequest("/products/42", ""))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fproducts%2F42", rec.Header().Get("Location"))
}

func TestGate_ProtectedPassesAuthenticated(t *testing.T) {
	gate, token := newGateFixture(t)
	handler := gate.Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gateRequest("/dashboard", token))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGate_PublicOnlyBouncesAuthenticated(t *testing.T) {
	gate, token := newGateFixture(t)
	handler := gate.Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gateRequest("/login", token))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, HomePath, rec.Header().Get("Location"))
}

func TestGate_PublicOnlyServesAnonymous(t *testing.T) {
	gate, _ := newGateFixture(t)
	handler := gate.Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gateRequest("/login", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGate_OpenRoutesAlwaysServe(t *testing.T) {
	gate, token := newGateFixture(t)
	handler := gate.Handler(okHandler())

	for _, path := range []string{"/", "/about"} {
		for _, tok := range []string{"", token} {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, gateRequest(path, tok))
			assert.Equal(t, http.StatusOK, rec.Code, "path %q", path)
		}
	}
}

func TestGate_BypassesAPIAndInfra(t *testing.T) {
	gate, _ := newGateFixture(t)
	handler := gate.Handler(okHandler())

	// API routes answer with status codes, never redirects
	for _, path := range []string{"/api/cart", "/healthz", "/metrics", "/favicon.ico", "/static/app.css"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, gateRequest(path, ""))
		assert.Equal(t, http.StatusOK, rec.Code, "path %q", path)
	}
}

func TestGate_GarbageTokenTreatedAsAnonymous(t *testing.T) {
	gate, _ := newGateFixture(t)
	handler := gate.Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gateRequest("/cart", "garbage"))

	assert.Equal(t, http.StatusFound, rec.Code)
}

// The gate checks only the signature: a token whose registry row was
// revoked still passes here and is rejected by the full resolver on
// the page's data fetches.
func TestGate_SignatureOnlyCheck(t *testing.T) {
	gate, token := newGateFixture(t)
	handler := gate.Handler(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gateRequest("/orders", token))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGate_PrefixMatchingIsSegmentAware(t *testing.T) {
	gate, _ := newGateFixture(t)
	handler := gate.Handler(okHandler())

	// "/cartography" is not under "/cart"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, gateRequest("/cartography", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
}
