// Package cookie carries the session token in an HTTP cookie.
package cookie

import (
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

const DefaultName = "token"

// Store writes and clears the session cookie. The cookie is always HttpOnly,
// scoped to "/", and marked Secure outside local development.
type Store struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
	now      func() time.Time
}

type Option func(*Store)

// WithClock overrides the time source used to compute Max-Age.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore returns a Store. sameSite accepts "strict" or "lax"; anything
// else falls back to strict.
func NewStore(name string, secure bool, sameSite string, opts ...Option) *Store {
	if name == "" {
		name = DefaultName
	}
	s := &Store{
		Name:     name,
		Secure:   secure,
		SameSite: ParseSameSite(sameSite),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func ParseSameSite(v string) http.SameSite {
	if strings.EqualFold(strings.TrimSpace(v), "lax") {
		return http.SameSiteLaxMode
	}
	return http.SameSiteStrictMode
}

// Attach sets the session cookie so that it expires together with the token.
// Token expiry is whole seconds, so a partly elapsed second still counts.
func (s *Store) Attach(c echo.Context, token string, expiresAt time.Time) {
	maxAge := int(math.Ceil(expiresAt.Sub(s.now()).Seconds()))
	if maxAge <= 0 {
		s.Clear(c)
		return
	}
	c.SetCookie(s.build(token, maxAge, expiresAt))
}

// Clear overwrites the session cookie with an empty, already-expired one.
func (s *Store) Clear(c echo.Context) {
	c.SetCookie(s.build("", -1, time.Unix(0, 0)))
}

// Read returns the raw session token from the request. ok is false when the
// cookie is absent or empty.
func (s *Store) Read(c echo.Context) (string, bool) {
	ck, err := c.Cookie(s.Name)
	if err != nil || ck.Value == "" {
		return "", false
	}
	return ck.Value, true
}

func (s *Store) build(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     s.Name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires.UTC(),
		HttpOnly: true,
		Secure:   s.Secure,
		SameSite: s.SameSite,
	}
}
