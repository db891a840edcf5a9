// Package identity assigns an anonymous, per-device client id. It is used to
// group transcripts and key rate limits; it is not authentication.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"time"
)

const (
	CookieName     = "skillpath_client"
	HeaderName     = "X-Client-ID"
	cookieMaxAge   = 30 * 24 * time.Hour
	clientIDPrefix = "anon_"
)

type contextKey int

const clientIDKey contextKey = iota

var clientIDPattern = regexp.MustCompile(`^anon_[a-f0-9]{32}$`)

// ClientIDFromContext returns the client id injected by Middleware.
func ClientIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(clientIDKey).(string); ok {
		return v
	}
	return ""
}

// WithClientID returns a context carrying id.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, clientIDKey, id)
}

// NewClientID generates a random client id.
func NewClientID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate client id: %w", err)
	}
	return clientIDPrefix + hex.EncodeToString(buf), nil
}

// IsValid reports whether id has the client id format.
func IsValid(id string) bool {
	return clientIDPattern.MatchString(id)
}

func clientIDFromRequest(r *http.Request) string {
	if h := r.Header.Get(HeaderName); IsValid(h) {
		return h
	}
	if c, err := r.Cookie(CookieName); err == nil && IsValid(c.Value) {
		return c.Value
	}
	return ""
}

func setCookie(w http.ResponseWriter, id string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Expires:  time.Now().Add(cookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// Middleware reuses the client id from the X-Client-ID header or cookie, or
// issues a new one, and refreshes the cookie.
func Middleware(isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := clientIDFromRequest(r)
			if id == "" {
				var err error
				if id, err = NewClientID(); err != nil {
					http.Error(w, `{"error":"failed to establish client identity"}`, http.StatusInternalServerError)
					return
				}
			}
			setCookie(w, id, isDev)
			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id)))
		})
	}
}

// IPFromRequest returns the remote IP without its port.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimitKey keys rate limits by client id, falling back to the remote IP.
func RateLimitKey(r *http.Request) string {
	if id := ClientIDFromContext(r.Context()); id != "" {
		return id
	}
	return IPFromRequest(r)
}
