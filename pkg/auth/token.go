package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenValidity is the fixed validity window for issued tokens
const DefaultTokenValidity = 7 * 24 * time.Hour

// DevFallbackSecret is the signing secret used when none is configured.
// Config flags its use at startup and refuses it in production.
const DevFallbackSecret = "your-super-secret-jwt-key-change-this"

// Claims are the statements embedded in a bearer token. They are
// trusted only after TokenManager.Verify succeeds; nothing may decode
// a token without verifying it.
type Claims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// TokenManager issues and verifies HS256-signed bearer tokens. It owns
// no persisted state; it is a pure function of the secret and claims.
type TokenManager struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

// NewTokenManager creates a token manager with the given symmetric
// secret. A zero validity falls back to DefaultTokenValidity.
func NewTokenManager(secret string, validity time.Duration) *TokenManager {
	if validity <= 0 {
		validity = DefaultTokenValidity
	}
	return &TokenManager{
		secret:   []byte(secret),
		validity: validity,
		now:      time.Now,
	}
}

// Validity returns the fixed validity window for issued tokens
func (tm *TokenManager) Validity() time.Duration {
	return tm.validity
}

// Issue produces a signed compact token for the given user, valid from
// now until now plus the configured validity window.
func (tm *TokenManager) Issue(user *SafeUser) (token string, expiresAt time.Time, err error) {
	issuedAt := tm.now()
	expiresAt = issuedAt.Add(tm.validity)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}

	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return token, expiresAt, nil
}

// Verify checks the signature and expiry of a token and returns its
// claims. Every failure mode (malformed, tampered, expired, wrong
// algorithm) collapses to ErrInvalidToken; callers treat that as
// "no token presented".
func (tm *TokenManager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Role.IsValid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
