package handler

import "github.com/lastmile/delivery-api/internal/core/domain"

type signupRequest struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"     validate:"required,oneof=customer driver retailer"`
}

// loginRequest only checks presence. A malformed email or an unknown role
// is a credential mismatch and is answered as one.
type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message  string       `json:"message"`
	Role     domain.Role  `json:"role"`
	Redirect string       `json:"redirect"`
	User     *domain.User `json:"user"`
}

type meResponse struct {
	User domain.Claims `json:"user"`
}

type dashboardResponse struct {
	User    domain.Claims `json:"user"`
	Landing string        `json:"landing"`
}

type errorBody struct {
	Error string `json:"error"`
}
