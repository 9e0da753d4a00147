// Package auth carries the resolved caller identity through request
// contexts. Authentication itself happens upstream (API Gateway
// authorizer); this package only transports what the authorizer
// already resolved.
package auth

import (
	"context"
	"errors"
)

// ErrNoUser is returned when a request context carries no identity.
var ErrNoUser = errors.New("user not found in context")

// UserContext represents the resolved caller identity.
type UserContext struct {
	UserID string
}

// ContextKey for storing user context
type contextKey string

const userContextKey contextKey = "user"

// GetUserFromContext extracts the caller identity from ctx.
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil || user.UserID == "" {
		return nil, ErrNoUser
	}
	return user, nil
}

// SetUserInContext adds the caller identity to ctx.
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
