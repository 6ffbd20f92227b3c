package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/plaza/internal/domain"
)

const auditLogColumns = `id, operation_type, operation_target, target_id, operator, description, details, created_at`

type AuditLogRepo struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepo(pool *pgxpool.Pool) *AuditLogRepo {
	return &AuditLogRepo{pool: pool}
}

func (r *AuditLogRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("auditLogRepo.Create: marshal details: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO audit_log (`+auditLogColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, string(entry.OperationType), string(entry.OperationTarget), entry.TargetID,
		entry.Operator, entry.Description, details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditLogRepo.Create: %w", err)
	}

	return nil
}

func (r *AuditLogRepo) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+auditLogColumns+` FROM audit_log WHERE id = $1`, id)

	entry, err := scanAuditLog(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("auditLogRepo.GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("auditLogRepo.GetByID: %w", err)
	}

	return entry, nil
}

// List returns one page of matching entries, newest first, and the total
// number of matches.
func (r *AuditLogRepo) List(ctx context.Context, filter domain.AuditLogFilter) ([]*domain.AuditLog, int, error) {
	where, args := buildAuditLogWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM audit_log`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("auditLogRepo.List: count: %w", err)
	}

	query := `SELECT ` + auditLogColumns + ` FROM audit_log` + where + ` ORDER BY created_at DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("auditLogRepo.List: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.AuditLog, 0)
	for rows.Next() {
		entry, scanErr := scanAuditLog(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("auditLogRepo.List: %w", scanErr)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("auditLogRepo.List: rows: %w", err)
	}

	return entries, total, nil
}

func buildAuditLogWhere(f domain.AuditLogFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.OperationType != "" {
		add("operation_type = $%d", string(f.OperationType))
	}
	if f.OperationTarget != "" {
		add("operation_target = $%d", string(f.OperationTarget))
	}
	if f.Operator != "" {
		add("operator = $%d", f.Operator)
	}
	if !f.Since.IsZero() {
		add("created_at >= $%d", f.Since)
	}
	if !f.Until.IsZero() {
		add("created_at < $%d", f.Until)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanAuditLog(row pgx.Row) (*domain.AuditLog, error) {
	var (
		e       domain.AuditLog
		opType  string
		target  string
		details []byte
	)

	if err := row.Scan(
		&e.ID, &opType, &target, &e.TargetID, &e.Operator,
		&e.Description, &details, &e.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	e.OperationType = domain.OperationType(opType)
	e.OperationTarget = domain.OperationTarget(target)
	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return nil, fmt.Errorf("unmarshal details: %w", err)
		}
	}

	return &e, nil
}
