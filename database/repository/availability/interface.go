// File: database/repository/availability/interface.go
package availabilityRepo

import (
	"context"
	"errors"
	"time"

	"servicely/models"
	"servicely/services/slots"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when no record matches.
	ErrNotFound = errors.New("availability record not found")
	// ErrSlotsUnavailable is returned when a conditional bit update finds a booked slot in range.
	ErrSlotsUnavailable = errors.New("requested slots are no longer free")
	// ErrDuplicate is returned when a record for (provider, date) already exists.
	ErrDuplicate = errors.New("availability record already exists")
)

// AvailabilityRepository persists per-provider-per-day availability.
// Every method accepts a transaction context from database.Transactor.
type AvailabilityRepository interface {
	CreateMany(ctx context.Context, records []models.AvailabilityRecord) error
	GetByProviderAndDate(ctx context.Context, providerID string, date time.Time) (*models.AvailabilityRecord, error)
	ListFromDate(ctx context.Context, providerID string, from time.Time) ([]models.AvailabilityRecord, error)
	FindActiveByProvidersAndDate(ctx context.Context, providerIDs []string, date time.Time) ([]models.AvailabilityRecord, error)
	ToggleActive(ctx context.Context, providerID string, date time.Time) (*models.AvailabilityRecord, error)
	ClaimSlots(ctx context.Context, recordID string, rangeMask slots.Bitmask) error
	ReleaseSlots(ctx context.Context, recordID string, rangeMask slots.Bitmask) error
	EnsureIndexes(ctx context.Context) error
}

type mongoAvailabilityRepo struct {
	coll *mongo.Collection
}

// NewMongoAvailabilityRepo constructs a MongoDB AvailabilityRepository.
func NewMongoAvailabilityRepo(db *mongo.Database) AvailabilityRepository {
	return &mongoAvailabilityRepo{
		coll: db.Collection("availability"),
	}
}
