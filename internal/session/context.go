package session

import "context"

type ctxKey string

const sessionKey ctxKey = "session"

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}

// CallerFromContext returns the authenticated user id, or "" when anonymous.
func CallerFromContext(ctx context.Context) string {
	if s, ok := FromContext(ctx); ok {
		return s.User.ID
	}
	return ""
}
