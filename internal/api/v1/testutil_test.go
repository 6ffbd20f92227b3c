package v1_test

import (
	"context"

	"github.com/gosuda/plaza/internal/auth"
	"github.com/gosuda/plaza/internal/domain"
	"github.com/gosuda/plaza/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers: inject operator/role into context for DoCtx
// ---------------------------------------------------------------------------

func editorCtx(operator string) context.Context {
	return middleware.WithIdentity(context.Background(), operator, auth.RoleEditor)
}

func viewerCtx(operator string) context.Context {
	return middleware.WithIdentity(context.Background(), operator, auth.RoleViewer)
}

// ---------------------------------------------------------------------------
// Mock AuditService
// ---------------------------------------------------------------------------

type mockAuditService struct {
	recordFunc func(ctx context.Context, entry *domain.AuditLog) error
	getFunc    func(ctx context.Context, id string) (*domain.AuditLog, error)
	listFunc   func(ctx context.Context, filter domain.AuditLogFilter) ([]*domain.AuditLog, int, error)
}

func (m *mockAuditService) Record(ctx context.Context, entry *domain.AuditLog) error {
	return m.recordFunc(ctx, entry)
}

func (m *mockAuditService) Get(ctx context.Context, id string) (*domain.AuditLog, error) {
	return m.getFunc(ctx, id)
}

func (m *mockAuditService) List(ctx context.Context, filter domain.AuditLogFilter) ([]*domain.AuditLog, int, error) {
	return m.listFunc(ctx, filter)
}
