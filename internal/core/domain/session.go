package domain

import (
	"errors"
	"time"
)

var (
	ErrTokenMalformed        = errors.New("token: malformed")
	ErrTokenExpired          = errors.New("token: expired")
	ErrTokenInvalidSignature = errors.New("token: invalid signature")
	ErrSessionRevoked        = errors.New("session revoked")
)

// Claims is the identity bundle signed into a session token.
type Claims struct {
	UserID   string `json:"id"`
	Role     Role   `json:"role"`
	Email    string `json:"email"`
	FullName string `json:"fullName,omitempty"`
}

// Session is a verified token: the claims plus its registered metadata.
// Sessions are not stored server-side; validity depends only on signature,
// expiry and (when enabled) the revocation denylist.
type Session struct {
	Claims
	ID        string    `json:"-"`
	IssuedAt  time.Time `json:"-"`
	ExpiresAt time.Time `json:"-"`
}

// Remaining is the lifetime left at now, floored at zero.
func (s Session) Remaining(now time.Time) time.Duration {
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
