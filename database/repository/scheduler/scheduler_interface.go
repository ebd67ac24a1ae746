package schedulerRepo

import (
	"context"
	"errors"

	"servicely/models"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound  = errors.New("booking not found")
	ErrDuplicate = errors.New("booking already exists")
)

// SchedulerRepository persists bookings and the slot reservations behind them.
// Conditional updates return ErrNotFound when the expected state no longer holds.
type SchedulerRepository interface {
	CreateBookedSlot(ctx context.Context, slot *models.BookedSlot) error
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	GetBookedSlot(ctx context.Context, slotID string) (*models.BookedSlot, error)
	FindInitiatedBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	FindInitiatedBookedSlot(ctx context.Context, slotID, providerID string) (*models.BookedSlot, error)
	ConfirmBookedSlot(ctx context.Context, slotID, providerID string) error
	CancelBookedSlot(ctx context.Context, slotID string) error
	UpdateBookingStatus(ctx context.Context, bookingID string, from []string, to, providerID string) error
	EnsureIndexes(ctx context.Context) error
}

// MongoSchedulerRepo implements SchedulerRepository using MongoDB.
type MongoSchedulerRepo struct {
	bookingColl    *mongo.Collection
	bookedSlotColl *mongo.Collection
}

// NewMongoSchedulerRepo constructs a new instance of MongoSchedulerRepo.
func NewMongoSchedulerRepo(db *mongo.Database) SchedulerRepository {
	return &MongoSchedulerRepo{
		bookingColl:    db.Collection("bookings"),
		bookedSlotColl: db.Collection("booked_slots"),
	}
}
