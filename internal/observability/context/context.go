package context

import (
	"context"
	"strings"
)

type requestIDKey struct{}
type operatorKey struct{}

// Operator identifies the staff member driving a request.
type Operator struct {
	Name string
	Role string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

func WithOperator(ctx context.Context, op Operator) context.Context {
	op.Name = strings.TrimSpace(op.Name)
	op.Role = strings.ToLower(strings.TrimSpace(op.Role))
	if op.Name == "" {
		return ctx
	}
	return context.WithValue(ctx, operatorKey{}, op)
}

func OperatorFromContext(ctx context.Context) (Operator, bool) {
	if ctx == nil {
		return Operator{}, false
	}
	op, ok := ctx.Value(operatorKey{}).(Operator)
	return op, ok
}
