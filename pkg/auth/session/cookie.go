package session

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultCookieName is the cookie carrying the seller session token.
const DefaultCookieName = "dossiers_session"

// DefaultMaxAge is how long browsers keep the cookie. Tokens themselves never expire.
const DefaultMaxAge = 10 * 365 * 24 * time.Hour

// CookieOptions controls how the session cookie is written.
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

func (o CookieOptions) name() string {
	if o.Name == "" {
		return DefaultCookieName
	}
	return o.Name
}

// NewCookie builds the Set-Cookie value for a freshly issued token.
func NewCookie(opts CookieOptions, token string) *http.Cookie {
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &http.Cookie{
		Name:     opts.name(),
		Value:    token,
		Path:     "/",
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie in the browser.
func ClearCookie(opts CookieOptions) *http.Cookie {
	return &http.Cookie{
		Name:     opts.name(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ParseCookieHeader splits a raw Cookie header into name/value pairs.
// Segments are split at the first '=', names and values are trimmed and values
// percent-decoded (kept raw when decoding fails). The first occurrence of a name wins.
func ParseCookieHeader(header string) map[string]string {
	cookies := make(map[string]string)
	for _, segment := range strings.Split(header, ";") {
		name, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, seen := cookies[name]; seen {
			continue
		}
		value = strings.TrimSpace(value)
		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}
		cookies[name] = value
	}
	return cookies
}

// TokenFromRequest extracts the session token from the request's Cookie headers.
func TokenFromRequest(r *http.Request, name string) (string, bool) {
	if name == "" {
		name = DefaultCookieName
	}
	for _, header := range r.Header.Values("Cookie") {
		if value, ok := ParseCookieHeader(header)[name]; ok && value != "" {
			return value, true
		}
	}
	return "", false
}
