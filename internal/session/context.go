// Package session keeps chat conversation state per session and issues the
// signed tokens clients use to come back to their session.
package session

import "context"

type contextKey string

const sessionIDKey contextKey = "sessionID"

// WithID returns a copy of ctx carrying the session id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// IDFromContext extracts the session id put there by the session middleware.
func IDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionIDKey).(string)
	return v
}

const newTokenKey contextKey = "newSessionToken"

// WithNewToken marks ctx as belonging to a session minted by this request.
func WithNewToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, newTokenKey, token)
}

// NewTokenFromContext returns the token minted for this request, or "" when
// the client resumed an existing session.
func NewTokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(newTokenKey).(string)
	return v
}
