// Package token issues and verifies HS256 session tokens.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lastmile/delivery-api/internal/core/domain"
)

var (
	ErrEmptySecret = errors.New("token: empty signing secret")
	// ErrMissingSubject is returned by Issue for claims without a user ID;
	// such a token could never verify.
	ErrMissingSubject = errors.New("token: claims have no user id")
)

var signingMethod = jwt.SigningMethodHS256

// sessionClaims is the wire form of a session token payload.
type sessionClaims struct {
	Role     string `json:"role"`
	Email    string `json:"email"`
	FullName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with a shared secret.
type Codec struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		if now != nil {
			c.now = now
		}
	}
}

func NewCodec(secret string, opts ...Option) (*Codec, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	c := &Codec{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs claims into a compact token valid for ttl. Every token carries
// a fresh random ID, so two tokens for the same claims never compare equal.
func (c *Codec) Issue(claims domain.Claims, ttl time.Duration) (string, domain.Session, error) {
	if ttl <= 0 {
		return "", domain.Session{}, fmt.Errorf("token: non-positive ttl %s", ttl)
	}
	if claims.UserID == "" {
		return "", domain.Session{}, ErrMissingSubject
	}

	now := c.now()
	registered := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(signingMethod, sessionClaims{
		Role:             string(claims.Role),
		Email:            claims.Email,
		FullName:         claims.FullName,
		RegisteredClaims: registered,
	}).SignedString(c.secret)
	if err != nil {
		return "", domain.Session{}, fmt.Errorf("token: sign: %w", err)
	}

	return signed, domain.Session{
		Claims:    claims,
		ID:        registered.ID,
		IssuedAt:  registered.IssuedAt.Time,
		ExpiresAt: registered.ExpiresAt.Time,
	}, nil
}

// Verify checks the signature first and only then decodes the payload, so a
// token altered anywhere outside its separators fails with
// domain.ErrTokenInvalidSignature rather than a decoding error.
func (c *Codec) Verify(raw string) (domain.Session, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return domain.Session{}, domain.ErrTokenMalformed
	}

	sig, err := base64.RawURLEncoding.Strict().DecodeString(parts[2])
	if err != nil {
		return domain.Session{}, domain.ErrTokenInvalidSignature
	}
	if err := signingMethod.Verify(parts[0]+"."+parts[1], sig, c.secret); err != nil {
		return domain.Session{}, domain.ErrTokenInvalidSignature
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)

	var sc sessionClaims
	if _, err := parser.ParseWithClaims(raw, &sc, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}); err != nil {
		return domain.Session{}, mapJWTError(err)
	}

	if sc.ExpiresAt == nil || sc.Subject == "" {
		return domain.Session{}, domain.ErrTokenMalformed
	}

	s := domain.Session{
		Claims: domain.Claims{
			UserID:   sc.Subject,
			Role:     domain.Role(sc.Role),
			Email:    sc.Email,
			FullName: sc.FullName,
		},
		ID:        sc.ID,
		ExpiresAt: sc.ExpiresAt.Time,
	}
	if sc.IssuedAt != nil {
		s.IssuedAt = sc.IssuedAt.Time
	}
	return s, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %w", domain.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return fmt.Errorf("%w: %w", domain.ErrTokenInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %w", domain.ErrTokenMalformed, err)
	}
}
