package providerRepo

import (
	"context"
	"errors"

	"servicely/models"
)

var (
	ErrNotFound   = errors.New("provider not found")
	ErrNoLocation = errors.New("provider has no known location")
)

// ProviderRepository defines methods for provider data access.
type ProviderRepository interface {
	// GetLocation returns the provider's last durable position.
	GetLocation(ctx context.Context, id string) (models.GeoPoint, error)
	// UpsertLocations writes positions flushed from the live index. It is idempotent.
	UpsertLocations(ctx context.Context, locations []models.ProviderLocation) (int64, error)
	// SetFCMToken registers the device token used for push notifications.
	SetFCMToken(ctx context.Context, id, token string) error
	// GetFCMToken returns the provider's device token, empty if none is registered.
	GetFCMToken(ctx context.Context, id string) (string, error)
	EnsureIndexes(ctx context.Context) error
}
