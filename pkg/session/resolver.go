package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

// UserFinder is the slice of the user store the resolver needs
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*auth.User, error)
}

// Resolver is the authoritative procedure turning a request's cookie
// into a verified identity. Four checks run in sequence: cookie
// present, token signature and expiry valid, session still registered,
// user still exists. Failing any check yields (nil, nil); only store
// failures yield an error.
type Resolver struct {
	tokens   *auth.TokenManager
	registry *Registry
	users    UserFinder
}

// NewResolver creates a resolver over the given collaborators
func NewResolver(tokens *auth.TokenManager, registry *Registry, users UserFinder) *Resolver {
	return &Resolver{tokens: tokens, registry: registry, users: users}
}

// ResolveCurrentUser reconstructs the authenticated identity from the
// request's cookies. A cryptographically valid token whose session was
// revoked (logout) resolves to nil: the registry check is what makes
// server-side revocation effective before token expiry.
func (r *Resolver) ResolveCurrentUser(ctx context.Context, cookies CookieAccessor) (*auth.SafeUser, error) {
	token := TokenFromCookies(cookies)
	if token == "" {
		return nil, nil
	}

	claims, err := r.tokens.Verify(token)
	if err != nil {
		return nil, nil
	}

	sess, err := r.registry.FindByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("resolving session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}

	user, err := r.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving user: %w", err)
	}

	return user.Safe(), nil
}
