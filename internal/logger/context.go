package logger

import (
	"context"

	"go.uber.org/zap"
)

type (
	ctxKey    struct{}
	searchKey struct{}
)

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the context logger, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithSearch tags the context logger with a search's request_id and
// strategy. A context already tagged for the same request is returned as is,
// so nested layers do not repeat the fields.
func WithSearch(ctx context.Context, requestID, strategy string) (context.Context, *zap.Logger) {
	if id, ok := ctx.Value(searchKey{}).(string); ok && id == requestID {
		return ctx, FromContext(ctx)
	}
	log := FromContext(ctx).With(zap.String("request_id", requestID), zap.String("strategy", strategy))
	ctx = context.WithValue(ctx, searchKey{}, requestID)
	return ContextWithLogger(ctx, log), log
}

// SearchID returns the request id set by WithSearch.
func SearchID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(searchKey{}).(string)
	return id, ok
}
