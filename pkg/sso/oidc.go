package sso

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Identity is what the provider asserts about a signed-in visitor
type Identity struct {
	Subject  string
	Email    string
	Username string
}

// Config holds the OIDC relying-party settings
type Config struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// Authenticator drives the OIDC authorization code flow
type Authenticator struct {
	config       Config
	verifier     *oidc.IDTokenVerifier
	oauth2Config *oauth2.Config
}

// NewAuthenticator discovers the provider's endpoints from the issuer
// URL and builds the code-flow configuration
func NewAuthenticator(ctx context.Context, cfg Config) (*Authenticator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("discovering OIDC provider: %w", err)
	}

	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &Authenticator{
		config:   cfg,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
		},
	}, nil
}

func validateConfig(cfg Config) error {
	if cfg.IssuerURL == "" {
		return fmt.Errorf("issuer URL is required")
	}
	if cfg.ClientID == "" {
		return fmt.Errorf("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return fmt.Errorf("client secret is required")
	}
	if cfg.RedirectURL == "" {
		return fmt.Errorf("redirect URL is required")
	}
	return nil
}

// InitiateLogin redirects the browser to the provider's authorization
// endpoint. state must be an unguessable per-request value the caller
// checks on callback.
func (a *Authenticator) InitiateLogin(w http.ResponseWriter, r *http.Request, state string) {
	http.Redirect(w, r, a.oauth2Config.AuthCodeURL(state), http.StatusFound)
}

// HandleCallback exchanges the authorization code and verifies the ID
// token, returning the asserted identity
func (a *Authenticator) HandleCallback(ctx context.Context, r *http.Request) (*Identity, error) {
	code := r.URL.Query().Get("code")
	if code == "" {
		return nil, fmt.Errorf("missing authorization code")
	}

	token, err := a.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("missing id_token in response")
	}

	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verifying ID token: %w", err)
	}

	var claims struct {
		Email             string `json:"email"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parsing claims: %w", err)
	}

	identity := &Identity{
		Subject:  idToken.Subject,
		Email:    claims.Email,
		Username: claims.PreferredUsername,
	}
	if identity.Username == "" {
		identity.Username = identity.Email
	}

	if identity.Subject == "" {
		return nil, fmt.Errorf("missing subject in ID token")
	}
	if identity.Email == "" {
		return nil, fmt.Errorf("missing email in ID token")
	}

	return identity, nil
}
