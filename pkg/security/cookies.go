package security

import (
	"net/http"
	"time"
)

// CookieOptions carries the attributes shared by every cookie the app sets.
type CookieOptions struct {
	Secure bool
	Domain string
}

func NewCookie(opts CookieOptions, name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpireCookie returns a cookie that makes the browser drop name immediately
// (serialized as Max-Age=0).
func ExpireCookie(opts CookieOptions, name string) *http.Cookie {
	cookie := NewCookie(opts, name, "", 0)
	cookie.MaxAge = -1
	return cookie
}

// CookieValue returns the value of name, or "" when the cookie is absent.
func CookieValue(req *http.Request, name string) string {
	cookie, err := req.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
