package sso

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeIssuer serves just enough of the OIDC discovery document for the
// relying party to initialize
func fakeIssuer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"jwks_uri":               srv.URL + "/keys",
			"userinfo_endpoint":      srv.URL + "/userinfo",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/keys", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"keys": []interface{}{}})
	})

	return srv
}

func testConfig(issuer string) Config {
	return Config{
		IssuerURL:    issuer,
		ClientID:     "vetrina",
		ClientSecret: "secret",
		RedirectURL:  "https://shop.example.com/api/sso/callback",
	}
}

func TestNewAuthenticator_Discovery(t *testing.T) {
	srv := fakeIssuer(t)

	a, err := NewAuthenticator(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestNewAuthenticator_ValidatesConfig(t *testing.T) {
	srv := fakeIssuer(t)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing issuer", func(c *Config) { c.IssuerURL = "" }},
		{"missing client id", func(c *Config) { c.ClientID = "" }},
		{"missing client secret", func(c *Config) { c.ClientSecret = "" }},
		{"missing redirect", func(c *Config) { c.RedirectURL = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(srv.URL)
			tt.mutate(&cfg)
			_, err := NewAuthenticator(context.Background(), cfg)
			assert.Error(t, err)
		})
	}
}

func TestNewAuthenticator_UnreachableIssuer(t *testing.T) {
	srv := fakeIssuer(t)
	cfg := testConfig(srv.URL)
	srv.Close()

	_, err := NewAuthenticator(context.Background(), cfg)
	assert.Error(t, err)
}

func TestInitiateLogin_RedirectsToProvider(t *testing.T) {
	srv := fakeIssuer(t)

	a, err := NewAuthenticator(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.InitiateLogin(rec, httptest.NewRequest(http.MethodGet, "/api/sso/login", nil), "state-123")

	require.Equal(t, http.StatusFound, rec.Code)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/authorize", loc.Path)
	assert.Equal(t, "state-123", loc.Query().Get("state"))
	assert.Equal(t, "vetrina", loc.Query().Get("client_id"))
	assert.Equal(t, "code", loc.Query().Get("response_type"))
	assert.Contains(t, loc.Query().Get("scope"), "openid")
}

func TestHandleCallback_MissingCode(t *testing.T) {
	srv := fakeIssuer(t)

	a, err := NewAuthenticator(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/sso/callback", nil)
	_, err = a.HandleCallback(context.Background(), req)
	assert.Error(t, err)
}
