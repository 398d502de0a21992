package auth

import (
	"errors"
	"fmt"
	"time"
)

// Role is the closed set of account roles. Authorization points switch
// on Role values; raw string comparison is never used.
type Role string

const (
	// RoleAdmin grants full access, including product mutation and user listing
	RoleAdmin Role = "admin"
	// RoleUser is the standard role: read access plus cart and order operations
	RoleUser Role = "user"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// ParseRole converts a string into a Role, rejecting unknown values
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// User represents a stored account, including the password digest.
// It must never be serialized to a client; use Safe().
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// SafeUser is a User with the password digest stripped. This is the
// only user shape that crosses the HTTP boundary.
type SafeUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Safe returns the client-visible view of the user
func (u *User) Safe() *SafeUser {
	return &SafeUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// IsAdmin reports whether the user holds the admin role
func (u *SafeUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

var (
	// ErrInvalidToken is returned when a token fails signature or expiry checks
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidCredentials is returned for unknown users and wrong passwords
	// alike, so callers cannot distinguish the two cases.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
