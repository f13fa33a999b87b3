// Package requestctx carries per-request values (logger, trace ids and the
// visitor session id) between middleware and handlers.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type (
	loggerKey  struct{}
	traceKey   struct{}
	sessionKey struct{}
	slotKey    struct{}
)

var nop = zap.NewNop()

// TraceInfo is the span identity of the current request.
type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

// CloudTrace returns the "projects/<id>/traces/<trace>" form Cloud Logging
// correlates on, or "" when either part is missing.
func (t TraceInfo) CloudTrace() string {
	if t.ProjectID == "" || t.TraceID == "" {
		return ""
	}
	return "projects/" + t.ProjectID + "/traces/" + t.TraceID
}

func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = nop
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the request logger, or a no-op logger outside a request.
func Logger(ctx context.Context) *zap.Logger {
	if logger, _ := ctx.Value(loggerKey{}).(*zap.Logger); logger != nil {
		return logger
	}
	return nop
}

// HasLogger reports whether a logger was injected upstream.
func HasLogger(ctx context.Context) bool {
	logger, _ := ctx.Value(loggerKey{}).(*zap.Logger)
	return logger != nil && logger != nop
}

func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	return context.WithValue(ctx, traceKey{}, info)
}

func Trace(ctx context.Context) (TraceInfo, bool) {
	info, ok := ctx.Value(traceKey{}).(TraceInfo)
	return info, ok
}

// TraceID is a shorthand for Trace(ctx).TraceID.
func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}

// WithSessionID stores id and fills the slot reserved by WithSessionSlot, if any.
func WithSessionID(ctx context.Context, id string) context.Context {
	if slot, _ := ctx.Value(slotKey{}).(*string); slot != nil {
		*slot = id
	}
	return context.WithValue(ctx, sessionKey{}, id)
}

// WithSessionSlot lets middleware that wraps the session middleware read the
// id after the inner handlers ran. The slot starts with any id already set.
func WithSessionSlot(ctx context.Context) (context.Context, *string) {
	slot := new(string)
	*slot = SessionID(ctx)
	return context.WithValue(ctx, slotKey{}, slot), slot
}

// SessionID returns the visitor session id set by the session middleware.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
