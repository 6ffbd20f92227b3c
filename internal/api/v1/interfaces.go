package v1

import (
	"context"

	"github.com/gosuda/plaza/internal/domain"
)

// AuditService abstracts audit-log operations for handler testing.
// *audit.Service satisfies this interface.
type AuditService interface {
	Record(ctx context.Context, entry *domain.AuditLog) error
	Get(ctx context.Context, id string) (*domain.AuditLog, error)
	List(ctx context.Context, filter domain.AuditLogFilter) ([]*domain.AuditLog, int, error)
}
