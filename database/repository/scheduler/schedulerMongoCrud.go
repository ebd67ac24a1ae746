package schedulerRepo

import (
	"context"
	"fmt"
	"time"

	"servicely/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// CreateBookedSlot inserts a new slot reservation.
func (repo *MongoSchedulerRepo) CreateBookedSlot(ctx context.Context, slot *models.BookedSlot) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.bookedSlotColl.InsertOne(ctx, slot); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating booked slot: %w", err)
	}
	return nil
}

// CreateBooking inserts a new booking document.
func (repo *MongoSchedulerRepo) CreateBooking(ctx context.Context, booking *models.Booking) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := repo.bookingColl.InsertOne(ctx, booking); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// ConfirmBookedSlot narrows the candidates to providerID. It only matches a slot that is
// still initiated and still offered to providerID.
func (repo *MongoSchedulerRepo) ConfirmBookedSlot(ctx context.Context, slotID, providerID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":        slotID,
		"status":    models.SlotInitiated,
		"providers": providerID,
	}
	update := bson.M{
		"$set": bson.M{
			"providers": []string{providerID},
			"status":    models.SlotConfirmed,
			"updatedAt": time.Now().UTC(),
		},
	}
	res, err := repo.bookedSlotColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error confirming booked slot %s: %w", slotID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *MongoSchedulerRepo) CancelBookedSlot(ctx context.Context, slotID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":     slotID,
		"status": bson.M{"$ne": models.SlotCancelled},
	}
	update := bson.M{
		"$set": bson.M{
			"status":    models.SlotCancelled,
			"updatedAt": time.Now().UTC(),
		},
	}
	res, err := repo.bookedSlotColl.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("error cancelling booked slot %s: %w", slotID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBookingStatus moves a booking to status `to` if its current status is one of `from`.
// A non-empty providerID is recorded alongside.
func (repo *MongoSchedulerRepo) UpdateBookingStatus(ctx context.Context, bookingID string, from []string, to, providerID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"id": bookingID, "status": bson.M{"$in": from}}
	set := bson.M{"status": to, "updatedAt": time.Now().UTC()}
	if providerID != "" {
		set["providerId"] = providerID
	}
	res, err := repo.bookingColl.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("error updating booking %s: %w", bookingID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
