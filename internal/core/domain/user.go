package domain

import (
	"errors"
	"time"
)

// Role is one of the closed set of account roles.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleDriver   Role = "driver"
	RoleRetailer Role = "retailer"
)

// Roles lists every valid role in display order.
var Roles = []Role{RoleCustomer, RoleDriver, RoleRetailer}

var (
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrForbidden          = errors.New("access forbidden")
	ErrValidation         = errors.New("validation failed")
)

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleDriver, RoleRetailer:
		return true
	}
	return false
}

// LandingPath is where the web app sends a user of this role after login.
func (r Role) LandingPath() string {
	switch r {
	case RoleRetailer:
		return "/retailer"
	case RoleDriver:
		return "/driver"
	default:
		return "/dashboard"
	}
}

// User models an account holder. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Claims returns the identity fields that are embedded in a session token.
func (u *User) Claims() Claims {
	return Claims{
		UserID:   u.ID,
		Role:     u.Role,
		Email:    u.Email,
		FullName: u.FullName,
	}
}

// ValidationError carries a client-facing message for rejected input.
// errors.Is(err, ErrValidation) holds for every ValidationError.
type ValidationError struct {
	Message string
}

func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
