// Package session implements the server-side half of authentication:
// the registry of issued tokens and the resolver that turns a
// request's cookie into a verified identity.
//
// A bearer token alone is never sufficient. The resolver requires the
// token signature to verify, the token to still be present in the
// registry, and the owning user to still exist. Logout deletes the
// registry row, which revokes a token that remains cryptographically
// valid until its embedded expiry.
package session
