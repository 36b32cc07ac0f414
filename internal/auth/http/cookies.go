package http

import (
	"net/http"
	"time"
)

// RefreshCookieName is the cookie carrying the opaque refresh token.
const RefreshCookieName = "refreshToken"

// CookieConfig controls how the refresh cookie is written.
type CookieConfig struct {
	// Secure marks the cookie HTTPS-only. Enabled outside development.
	Secure bool

	// TTL bounds the cookie's lifetime; it matches the refresh token TTL.
	TTL time.Duration
}

// SetRefreshCookie writes the refresh token as an httpOnly cookie scoped to
// the whole site so both /auth/refresh and /auth/logout receive it.
func (c CookieConfig) SetRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearRefreshCookie expires the refresh cookie immediately.
func (c CookieConfig) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// refreshTokenFromRequest prefers the cookie, falling back to the JSON body
// value for clients without cookie support.
func refreshTokenFromRequest(r *http.Request, bodyToken string) string {
	if cookie, err := r.Cookie(RefreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return bodyToken
}
