package context_values

import (
	"context"
	"fmt"
)

type contextKey string

var (
	contextKeyExecutionId = contextKey("execution_id")
	contextKeyListName    = contextKey("list_name")
)

// WithExecutionId adds the execution id to the context
func WithExecutionId(ctx context.Context, executionId string) context.Context {
	return context.WithValue(ctx, contextKeyExecutionId, executionId)
}

// WithListName adds the name of the list being fetched to the context
func WithListName(ctx context.Context, listName string) context.Context {
	return context.WithValue(ctx, contextKeyListName, listName)
}

// ExecutionIdFromContext returns the execution id from the context
func ExecutionIdFromContext(ctx context.Context) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("context is nil")
	}
	val, ok := ctx.Value(contextKeyExecutionId).(string)
	if !ok {
		return "", fmt.Errorf("no execution id in context")
	}
	return val, nil
}

// ListNameFromContext returns the list name from the context, or an empty string
func ListNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	val, _ := ctx.Value(contextKeyListName).(string)
	return val
}
