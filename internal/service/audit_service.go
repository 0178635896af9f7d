package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/healthpass/healthpass/internal/domain"
)

type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLog) error
}

// AuditService appends one entry per state-changing action. Writes are
// synchronous: a dispense or issuance does not complete with its audit row
// still in flight.
type AuditService struct {
	repo AuditRepository
	log  *zap.Logger
}

func NewAuditService(repo AuditRepository, log *zap.Logger) *AuditService {
	return &AuditService{repo: repo, log: log}
}

// Record appends an audit entry. A persistence failure is logged and
// swallowed; audit trouble must never fail the action being audited.
func (s *AuditService) Record(ctx context.Context, event domain.AuditEvent, payload string) {
	entry := &domain.AuditLog{
		EventType: event,
		Payload:   payload,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.log.Error("failed to persist audit entry",
			zap.String("event_type", string(event)),
			zap.Error(err),
		)
	}
}
