package auth

import (
	"context"

	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext returns the authenticated actor placed on the request context by the session middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok && user != nil
}
