package availability

import (
	"context"
	"errors"
	"time"

	"servicely/models"
)

// WindowDays is the length of the rolling window created on first registration.
const WindowDays = 4

var (
	ErrInvalidInput = errors.New("invalid availability request")
	ErrNoWindow     = errors.New("no availability registered for this day")
)

// Store is the availability surface the booking flow and handlers depend on.
type Store interface {
	GetOrCreateWindow(ctx context.Context, providerID string, serviceIDs []string, start, end string, today time.Time) ([]models.AvailabilityRecord, error)
	ToggleActive(ctx context.Context, providerID string, today time.Time) (*models.ToggleResult, error)
	FindByProvidersAndDate(ctx context.Context, providerIDs []string, date time.Time) ([]models.AvailabilityRecord, error)
	ListForProvider(ctx context.Context, providerID string, from time.Time) ([]models.AvailabilityRecord, error)
	UpdateLocation(ctx context.Context, providerID string, req models.LocationUpdateRequest, today time.Time) ([]string, error)
}

// LocationSource resolves a provider's durable position.
type LocationSource interface {
	GetLocation(ctx context.Context, providerID string) (models.GeoPoint, error)
}
