package ports

import (
	"context"

	"github.com/lastmile/delivery-api/internal/core/domain"
)

// AuditRepository persists auth events to the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}

// AuditRecorder processes a single auth event.
type AuditRecorder interface {
	Record(ctx context.Context, event domain.AuthEvent) error
}

// AuditPublisher hands auth events off for asynchronous recording.
// Publish must not block the caller.
type AuditPublisher interface {
	Publish(event domain.AuthEvent)
}
