package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/plaza/internal/auth"
	"github.com/gosuda/plaza/internal/domain"
	"github.com/gosuda/plaza/internal/server/middleware"
)

type CreateAuditLogInput struct {
	Body struct {
		OperationType   string         `json:"operationType" enum:"CREATE,UPDATE,DELETE" doc:"Operation type"`
		OperationTarget string         `json:"operationTarget" enum:"CITY,DISTRICT,CBD,PART,POSITION,SHOP,SPACE" doc:"Kind of entity the operation touched"`
		TargetID        string         `json:"targetId,omitempty" maxLength:"255" doc:"Identifier of the touched entity"`
		Description     string         `json:"description,omitempty" maxLength:"2000" doc:"Free-form description"`
		Details         map[string]any `json:"details,omitempty" doc:"Additional structured details"`
	}
}

type AuditLogOutput struct {
	Body *domain.AuditLog
}

type ListAuditLogsInput struct {
	OperationType   string    `query:"operationType" doc:"Filter by operation type"`
	OperationTarget string    `query:"operationTarget" doc:"Filter by operation target"`
	Operator        string    `query:"operator" doc:"Filter by operator"`
	Since           time.Time `query:"since" doc:"Only entries created at or after this time"`
	Until           time.Time `query:"until" doc:"Only entries created before this time"`
	Limit           int       `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Max results"`
	Offset          int       `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type AuditLogPage struct {
	Items  []*domain.AuditLog `json:"items"`
	Total  int                `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

type ListAuditLogsOutput struct {
	Body *AuditLogPage
}

type GetAuditLogInput struct {
	ID string `path:"id" doc:"Audit log ID"`
}

func RegisterAuditLogRoutes(api huma.API, svc AuditService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-audit-log",
		Method:      http.MethodPost,
		Path:        "/audit-logs",
		Summary:     "Record an audit log entry",
		Tags:        []string{"Audit logs"},
	}, func(ctx context.Context, input *CreateAuditLogInput) (*AuditLogOutput, error) {
		role, _ := middleware.RoleFromContext(ctx)
		if role != auth.RoleAdmin && role != auth.RoleEditor {
			return nil, huma.Error403Forbidden("admin or editor role required")
		}
		operator, _ := middleware.OperatorFromContext(ctx)

		entry := &domain.AuditLog{
			OperationType:   domain.OperationType(input.Body.OperationType),
			OperationTarget: domain.OperationTarget(input.Body.OperationTarget),
			TargetID:        input.Body.TargetID,
			Operator:        operator,
			Description:     input.Body.Description,
			Details:         input.Body.Details,
		}

		if err := svc.Record(ctx, entry); err != nil {
			return nil, toHTTPError(err, "failed to record audit log")
		}

		return &AuditLogOutput{Body: entry}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-audit-logs",
		Method:      http.MethodGet,
		Path:        "/audit-logs",
		Summary:     "List audit log entries, newest first",
		Tags:        []string{"Audit logs"},
	}, func(ctx context.Context, input *ListAuditLogsInput) (*ListAuditLogsOutput, error) {
		filter := domain.AuditLogFilter{
			OperationType:   domain.OperationType(input.OperationType),
			OperationTarget: domain.OperationTarget(input.OperationTarget),
			Operator:        input.Operator,
			Since:           input.Since,
			Until:           input.Until,
			Limit:           input.Limit,
			Offset:          input.Offset,
		}

		entries, total, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHTTPError(err, "failed to list audit logs")
		}

		return &ListAuditLogsOutput{Body: &AuditLogPage{
			Items:  entries,
			Total:  total,
			Limit:  input.Limit,
			Offset: input.Offset,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-audit-log",
		Method:      http.MethodGet,
		Path:        "/audit-logs/{id}",
		Summary:     "Get an audit log entry",
		Tags:        []string{"Audit logs"},
	}, func(ctx context.Context, input *GetAuditLogInput) (*AuditLogOutput, error) {
		entry, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, toHTTPError(err, "failed to get audit log")
		}
		return &AuditLogOutput{Body: entry}, nil
	})
}

func toHTTPError(err error, msg string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("audit log not found")
	case errors.Is(err, domain.ErrInvalid):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError(msg, err)
	}
}
