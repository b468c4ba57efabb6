package shared

import (
	"context"
	"strconv"
	"strings"
)

type sessionContextKey struct{}

type actorContextKey struct{}

// ContextWithActorID binds an explicit actor ID, used by background workers
// and tests that run outside an HTTP session.
func ContextWithActorID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actorContextKey{}, userID)
}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ActorIDFromContext resolves the numeric user ID bound to the session, if
// any. An explicitly-bound actor ID takes precedence over the session.
func ActorIDFromContext(ctx context.Context) (int64, bool) {
	if id, ok := ctx.Value(actorContextKey{}).(int64); ok {
		return id, true
	}
	sess := SessionFromContext(ctx)
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
