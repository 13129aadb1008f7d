package ports

import (
	"context"
	"time"

	"github.com/lastmile/delivery-api/internal/core/domain"
)

// PasswordHasher hashes and verifies plaintext passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenCodec issues and verifies signed session tokens.
type TokenCodec interface {
	Issue(claims domain.Claims, ttl time.Duration) (string, domain.Session, error)
	Verify(token string) (domain.Session, error)
}

// SessionDenylist records revoked token IDs until their natural expiry.
type SessionDenylist interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
