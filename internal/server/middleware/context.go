package middleware

import "context"

type contextKey string

const (
	ContextKeyOperator contextKey = "operator"
	ContextKeyUserRole contextKey = "role"
)

func OperatorFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyOperator).(string)
	return v, ok
}

func RoleFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyUserRole).(string)
	return v, ok
}

// WithIdentity returns a copy of ctx carrying operator and role.
func WithIdentity(ctx context.Context, operator, role string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyOperator, operator)
	return context.WithValue(ctx, ContextKeyUserRole, role)
}
