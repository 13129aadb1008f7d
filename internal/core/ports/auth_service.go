package ports

import (
	"context"
	"time"

	"github.com/lastmile/delivery-api/internal/core/domain"
)

// SignupInput carries the fields of a new account.
type SignupInput struct {
	FullName string
	Email    string
	Password string
	Role     domain.Role
}

// LoginInput carries login credentials. Role is optional; when set it must
// match the stored role.
type LoginInput struct {
	Email    string
	Password string
	Role     domain.Role
}

// LoginResult is a freshly issued session for an authenticated user.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	// Logout revokes the session when revocation is enabled and returns the
	// verified session, or nil when the token is absent or invalid. It never
	// fails because of the token itself.
	Logout(ctx context.Context, token string) (*domain.Session, error)
	// CurrentUser verifies token and returns domain.ErrUnauthenticated when it
	// is empty, invalid, expired or revoked.
	CurrentUser(ctx context.Context, token string) (*domain.Session, error)
}
