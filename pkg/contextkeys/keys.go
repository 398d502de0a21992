// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application must be defined here.
// This prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

// Key is the type for context keys to prevent collisions
type Key string

const (
	// UserKey contains *auth.SafeUser
	// Set by: middleware.AuthMiddleware.Handler (pkg/middleware/auth.go)
	// Required by: all protected API endpoints
	UserKey Key = "current_user"

	// RequestIDKey contains the request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: request logging
	RequestIDKey Key = "request_id"
)
