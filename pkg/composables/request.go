package composables

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/aisha-ai/aisha-crm/pkg/constants"
)

// UseLogger returns the logger from the context.
// If the logger is not found, the function will panic.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(constants.LoggerKey)
	if logger == nil {
		panic("logger not found")
	}
	return logger.(*logrus.Entry)
}

// WithLogger returns a new context with the logger.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseRequestID returns the request id from the context, or "" when absent.
func UseRequestID(ctx context.Context) string {
	id, _ := ctx.Value(constants.RequestID).(string)
	return id
}

// WithRequestID returns a new context with the request id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, constants.RequestID, id)
}
