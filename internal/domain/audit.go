package domain

import (
	"context"
	"fmt"
	"time"
)

type OperationType string

const (
	OperationCreate OperationType = "CREATE"
	OperationUpdate OperationType = "UPDATE"
	OperationDelete OperationType = "DELETE"
)

// Valid reports whether t is one of the known operation types.
func (t OperationType) Valid() bool {
	switch t {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	default:
		return false
	}
}

// OperationTarget names the kind of entity an audited operation touched.
type OperationTarget string

const (
	TargetCity     OperationTarget = "CITY"
	TargetDistrict OperationTarget = "DISTRICT"
	TargetCBD      OperationTarget = "CBD"
	TargetPart     OperationTarget = "PART"
	TargetPosition OperationTarget = "POSITION"
	TargetShop     OperationTarget = "SHOP"
	TargetSpace    OperationTarget = "SPACE"
)

func (t OperationTarget) Valid() bool {
	switch t {
	case TargetCity, TargetDistrict, TargetCBD, TargetPart, TargetPosition, TargetShop, TargetSpace:
		return true
	default:
		return false
	}
}

// AuditLog is one recorded administrative operation. Values are copied when
// announced to stream subscribers; the stored row is never mutated there.
type AuditLog struct {
	ID              string          `json:"id"`
	OperationType   OperationType   `json:"operationType"`
	OperationTarget OperationTarget `json:"operationTarget"`
	TargetID        string          `json:"targetId,omitempty"`
	Operator        string          `json:"operator,omitempty"`
	Description     string          `json:"description,omitempty"`
	Details         map[string]any  `json:"details,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Validate checks the enumerated fields.
func (a *AuditLog) Validate() error {
	if !a.OperationType.Valid() {
		return fmt.Errorf("%w: unknown operation type %q", ErrInvalid, a.OperationType)
	}
	if !a.OperationTarget.Valid() {
		return fmt.Errorf("%w: unknown operation target %q", ErrInvalid, a.OperationTarget)
	}
	return nil
}

// AuditLogFilter narrows a List query. Zero values match everything.
type AuditLogFilter struct {
	OperationType   OperationType
	OperationTarget OperationTarget
	Operator        string
	Since           time.Time
	Until           time.Time
	Limit           int
	Offset          int
}

type AuditLogRepository interface {
	Create(ctx context.Context, entry *AuditLog) error
	GetByID(ctx context.Context, id string) (*AuditLog, error)
	List(ctx context.Context, filter AuditLogFilter) ([]*AuditLog, int, error)
}
