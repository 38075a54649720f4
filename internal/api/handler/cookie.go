package handler

import (
	"net/http"
	"time"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "token"

// CookieOptions controls the attributes of the session cookie.
type CookieOptions struct {
	// Secure adds the Secure attribute. Enabled in production.
	Secure bool
	// Now replaces time.Now when computing Max-Age.
	Now func() time.Time
}

func (o CookieOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// sessionCookie builds the cookie for a freshly issued token. Expires and
// Max-Age both track the token's own expiry.
func (o CookieOptions) sessionCookie(token string, expiresAt time.Time) *http.Cookie {
	maxAge := int(expiresAt.Sub(o.now()).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// clearCookie expires the session cookie with the same attributes it was set
// with so the browser replaces it.
func (o CookieOptions) clearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   o.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// TokenFromRequest returns the session token sent by the client, or "".
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
