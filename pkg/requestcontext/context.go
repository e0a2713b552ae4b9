// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them, services read them, and tests
// inject them without running the full middleware chain.
package requestcontext

import (
	"context"
	"time"
)

type (
	actorRoleKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// DefaultActorRole is attributed to actions performed without an
// authenticated caller (background jobs, the telemetry feed).
const DefaultActorRole = "system"

// ActorRole retrieves the acting role from the context. Falls back to
// DefaultActorRole so every audited action has an accountable actor.
func ActorRole(ctx context.Context) string {
	if role, ok := ctx.Value(actorRoleKey{}).(string); ok && role != "" {
		return role
	}
	return DefaultActorRole
}

// WithActorRole injects an acting role into the context.
func WithActorRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, actorRoleKey{}, role)
}

// RequestID retrieves the request correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for workers that need a consistent time within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
