// Package middleware provides HTTP middleware for session authentication,
// role authorization, page-route gating, and rate limiting.
package middleware
