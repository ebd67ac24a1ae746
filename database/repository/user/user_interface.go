package userRepo

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("user not found")

// UserRepository defines methods for user data access.
type UserRepository interface {
	// GetFCMToken returns the user's device token, empty if none is registered.
	GetFCMToken(ctx context.Context, id string) (string, error)
	// SetFCMToken replaces the user's device token.
	SetFCMToken(ctx context.Context, id, token string) error
	EnsureIndexes(ctx context.Context) error
}
