package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lastmile/delivery-api/internal/core/domain"
	"github.com/lastmile/delivery-api/internal/core/ports"
)

type auditService struct {
	repo ports.AuditRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditRecorder that persists auth events.
func NewAuditService(repo ports.AuditRepository, log zerolog.Logger) ports.AuditRecorder {
	return &auditService{repo: repo, log: log}
}

// Record stores one auth event. Events never carry passwords or tokens.
func (s *auditService) Record(ctx context.Context, ev domain.AuthEvent) error {
	if ev.Type == "" {
		return domain.NewValidationError("audit event type is required")
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}

	if err := s.repo.Insert(ctx, &ev); err != nil {
		return fmt.Errorf("record auth event: %w", err)
	}

	s.log.Debug().
		Str("type", string(ev.Type)).
		Str("email", ev.Email).
		Str("ip", ev.IP).
		Msg("auth event recorded")
	return nil
}
