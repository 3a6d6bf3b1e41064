package middleware

import (
	"context"

	"github.com/upb/dak-console/models"
	"github.com/upb/dak-console/services/sessioncache"
)

// Context key type to avoid collisions
type contextKey string

const (
	// RequestIDKey is the context key for request ID
	RequestIDKey contextKey = "request_id"

	// ClientIDKey is the context key for the browser client ID
	ClientIDKey contextKey = "client_id"

	// ClientKey is the context key for the client's cache entry
	ClientKey contextKey = "client"

	// SessionKey is the context key for the request's session snapshot
	SessionKey contextKey = "session"
)

// GetRequestIDFromContext retrieves the request ID from context
func GetRequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetClientIDFromContext retrieves the browser client ID from context
func GetClientIDFromContext(ctx context.Context) string {
	if clientID, ok := ctx.Value(ClientIDKey).(string); ok {
		return clientID
	}
	return ""
}

// WithClientID adds the browser client ID to the context
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ClientIDKey, clientID)
}

// GetClientFromContext retrieves the client's cache entry from context
func GetClientFromContext(ctx context.Context) *sessioncache.Entry {
	if entry, ok := ctx.Value(ClientKey).(*sessioncache.Entry); ok {
		return entry
	}
	return nil
}

// WithClient adds the client's cache entry to the context
func WithClient(ctx context.Context, entry *sessioncache.Entry) context.Context {
	return context.WithValue(ctx, ClientKey, entry)
}

// GetSessionFromContext retrieves the session snapshot taken for this request.
// Returns nil when nobody is signed in.
func GetSessionFromContext(ctx context.Context) *models.Session {
	if s, ok := ctx.Value(SessionKey).(*models.Session); ok {
		return s
	}
	return nil
}

// WithSession adds a session snapshot to the context
func WithSession(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}
