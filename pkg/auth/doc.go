// Package auth provides the authentication primitives for Vetrina:
// user and role types, bcrypt password hashing, and signed bearer
// token issuance and verification.
//
// Tokens are HS256 JWTs carrying the user id, username and role. A
// token is only one half of a valid credential: the server-side
// session registry (pkg/session) must also know the token, which is
// what makes logout-before-expiry possible.
package auth
