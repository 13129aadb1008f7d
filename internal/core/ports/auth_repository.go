package ports

import (
	"context"

	"github.com/lastmile/delivery-api/internal/core/domain"
)

// UserRepository defines persistence for account records.
type UserRepository interface {
	// Create inserts user and returns it with its assigned ID. It must return
	// domain.ErrUserExists when the email is already taken, enforced by the
	// store itself rather than a prior lookup.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByEmail returns domain.ErrUserNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
}
