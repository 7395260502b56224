package auth

import (
	"context"

	"github.com/stagelink/marketplace-api/internal/domain"
)

type contextKey string

const userContextKey contextKey = "userContext"

// UserContext carries the authenticated caller through the request context
type UserContext struct {
	// UserID is the marketplace account identifier from the token subject
	UserID string
	// DisplayName is the human-readable name from the token
	DisplayName string
	// Role is the marketplace side the caller acts as
	Role domain.Party
}

// IsOrganizer reports whether the caller acts as an event organizer
func (u *UserContext) IsOrganizer() bool {
	return u.Role == domain.PartyOrganizer
}

// IsProvider reports whether the caller acts as a service provider
func (u *UserContext) IsProvider() bool {
	return u.Role == domain.PartyProvider
}

// WithUserContext returns a new context with the user context attached
func WithUserContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// FromContext extracts the user context from the request context
func FromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}
