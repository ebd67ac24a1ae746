package booking

import (
	"context"
	"time"

	"servicely/models"
)

// BookingService coordinates slot search, reservation and acceptance.
// It is the only writer of availability bitmasks.
type BookingService interface {
	SearchProviders(ctx context.Context, req models.SlotSearchRequest) ([]models.ProviderAvailability, error)
	CreateBookingFromSlotSearch(ctx context.Context, userID string, req models.CreateBookingRequest) (*models.BookingResult, error)
	AcceptBooking(ctx context.Context, bookingID, providerID string) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string, actor models.Recipient) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID string, actor models.Recipient) (*models.BookingResult, error)
}

// AvailabilityFinder is the read side of the availability store.
type AvailabilityFinder interface {
	FindByProvidersAndDate(ctx context.Context, providerIDs []string, date time.Time) ([]models.AvailabilityRecord, error)
}

// Options tune the coordinator. Zero values fall back to defaults.
type Options struct {
	Durations       []int
	DefaultRadiusKm float64
	Now             func() time.Time
}
