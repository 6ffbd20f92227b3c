// Package audit records administrative operations and announces each new
// record to live stream subscribers.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/plaza/internal/domain"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Announcer makes a freshly stored audit log visible to stream subscribers.
// *stream.Bridge and *RedisAnnouncer satisfy this interface.
type Announcer interface {
	Announce(ctx context.Context, entry *domain.AuditLog) error
}

type Service struct {
	repo      domain.AuditLogRepository
	announcer Announcer
	now       func() time.Time
}

func NewService(repo domain.AuditLogRepository, announcer Announcer) *Service {
	return &Service{repo: repo, announcer: announcer, now: time.Now}
}

// Record validates and stores entry, then announces it. ID and CreatedAt are
// assigned here. Announcement is best effort: a failure is logged and the
// stored record is still returned as a success.
func (s *Service) Record(ctx context.Context, entry *domain.AuditLog) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("audit.Service.Record: %w", err)
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = s.now().UTC()

	if err := s.repo.Create(ctx, entry); err != nil {
		return fmt.Errorf("audit.Service.Record: %w", err)
	}

	if s.announcer != nil {
		if err := s.announcer.Announce(ctx, entry); err != nil {
			log.Warn().Err(err).Str("audit_log_id", entry.ID).Msg("audit: announce failed")
		}
	}

	return nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.AuditLog, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("audit.Service.Get: %w", err)
	}
	return entry, nil
}

// List returns one page of entries and the total match count. The page size
// is clamped to [1, MaxPageSize]; zero selects DefaultPageSize.
func (s *Service) List(ctx context.Context, filter domain.AuditLogFilter) ([]*domain.AuditLog, int, error) {
	if filter.OperationType != "" && !filter.OperationType.Valid() {
		return nil, 0, fmt.Errorf("audit.Service.List: %w: unknown operation type %q", domain.ErrInvalid, filter.OperationType)
	}
	if filter.OperationTarget != "" && !filter.OperationTarget.Valid() {
		return nil, 0, fmt.Errorf("audit.Service.List: %w: unknown operation target %q", domain.ErrInvalid, filter.OperationTarget)
	}

	switch {
	case filter.Limit <= 0:
		filter.Limit = DefaultPageSize
	case filter.Limit > MaxPageSize:
		filter.Limit = MaxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("audit.Service.List: %w", err)
	}
	return entries, total, nil
}
