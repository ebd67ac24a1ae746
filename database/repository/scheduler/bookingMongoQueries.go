package schedulerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicely/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func (repo *MongoSchedulerRepo) findBooking(ctx context.Context, filter bson.M) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	if err := repo.bookingColl.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking: %w", err)
	}
	return &booking, nil
}

func (repo *MongoSchedulerRepo) findBookedSlot(ctx context.Context, filter bson.M) (*models.BookedSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var slot models.BookedSlot
	if err := repo.bookedSlotColl.FindOne(ctx, filter).Decode(&slot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booked slot: %w", err)
	}
	return &slot, nil
}

// GetBooking retrieves a booking by its ID.
func (repo *MongoSchedulerRepo) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return repo.findBooking(ctx, bson.M{"id": bookingID})
}

func (repo *MongoSchedulerRepo) GetBookedSlot(ctx context.Context, slotID string) (*models.BookedSlot, error) {
	return repo.findBookedSlot(ctx, bson.M{"id": slotID})
}

// FindInitiatedBooking returns the booking only while nobody has accepted it yet.
func (repo *MongoSchedulerRepo) FindInitiatedBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	return repo.findBooking(ctx, bson.M{"id": bookingID, "status": models.BookingInitiated})
}

// FindInitiatedBookedSlot returns the slot only while it is initiated and offered to providerID.
func (repo *MongoSchedulerRepo) FindInitiatedBookedSlot(ctx context.Context, slotID, providerID string) (*models.BookedSlot, error) {
	return repo.findBookedSlot(ctx, bson.M{
		"id":        slotID,
		"status":    models.SlotInitiated,
		"providers": providerID,
	})
}
