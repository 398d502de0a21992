// Package sso implements optional OpenID Connect login for the
// storefront, mapping provider identities onto local accounts.
package sso
