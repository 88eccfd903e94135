package shared

import "context"

type ctxKeySession struct{}

// ContextWithSession attaches the authenticated session to the request context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKeySession{}, sess)
}

// SessionFromContext returns the session placed by the auth middleware, or nil
// for unauthenticated requests.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKeySession{}).(*Session)
	return sess
}
