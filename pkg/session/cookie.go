package session

import (
	"net/http"
	"time"
)

// CookieName is the single cookie carrying the bearer token
const CookieName = "session_token"

// CookieAccessor is the capability the resolver needs from the request
// layer: read one named cookie. *http.Request satisfies it.
type CookieAccessor interface {
	Cookie(name string) (*http.Cookie, error)
}

// TokenFromCookies extracts the bearer token, returning "" when the
// cookie is absent
func TokenFromCookies(cookies CookieAccessor) string {
	c, err := cookies.Cookie(CookieName)
	if err != nil || c == nil {
		return ""
	}
	return c.Value
}

// SetCookie writes the session cookie: HTTP-only, same-site lax,
// whole-application path, max-age matching the token validity window.
// secure must be true in production-like environments.
func SetCookie(w http.ResponseWriter, token string, validity time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(validity.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the client
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
