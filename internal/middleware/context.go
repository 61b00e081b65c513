package middleware

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	claimsKey    contextKey = "claims"
	requestIDKey contextKey = "request_id"
)

// WithUser stores the authenticated user in ctx
func WithUser(ctx context.Context, userID uuid.UUID, claims *JWTClaims) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, claimsKey, claims)
}

// GetUserIDFromContext returns the authenticated user id
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok
}

// GetClaimsFromContext returns the validated token claims
func GetClaimsFromContext(ctx context.Context) (*JWTClaims, bool) {
	c, ok := ctx.Value(claimsKey).(*JWTClaims)
	return c, ok
}

// GetRequestID returns the request id assigned by Logging
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
