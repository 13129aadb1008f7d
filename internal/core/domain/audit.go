package domain

import "time"

// AuthEventType names an auth outcome recorded in the audit trail.
type AuthEventType string

const (
	EventSignup         AuthEventType = "signup"
	EventSignupConflict AuthEventType = "signup_conflict"
	EventLogin          AuthEventType = "login"
	EventLoginFailed    AuthEventType = "login_failed"
	EventLogout         AuthEventType = "logout"
)

// AuthEvent is an append-only audit record of an auth outcome.
type AuthEvent struct {
	Type       AuthEventType
	Email      string
	UserID     string // empty when the account is unknown
	Role       Role
	IP         string
	UserAgent  string
	OccurredAt time.Time
}
