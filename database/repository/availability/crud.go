// File: database/repository/availability/crud.go
package availabilityRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicely/models"
	"servicely/services/slots"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoAvailabilityRepo) CreateMany(ctx context.Context, records []models.AvailabilityRecord) error {
	if len(records) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	docs := make([]interface{}, len(records))
	for i := range records {
		if records[i].ID == "" {
			records[i].ID = uuid.New().String()
		}
		records[i].Date = models.NormalizeDate(records[i].Date)
		records[i].CreatedAt = now
		records[i].UpdatedAt = now
		docs[i] = records[i]
	}

	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert availability records: %w", err)
	}
	return nil
}

// ToggleActive flips isActive server side so concurrent toggles never lose an update.
func (r *mongoAvailabilityRepo) ToggleActive(ctx context.Context, providerID string, date time.Time) (*models.AvailabilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"providerId": providerID, "date": models.NormalizeDate(date)}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"isActive":  bson.M{"$not": bson.A{"$isActive"}},
			"updatedAt": "$$NOW",
		}}},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec models.AvailabilityRecord
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to toggle availability: %w", err)
	}
	return &rec, nil
}

// ClaimSlots clears rangeMask only if every bit in it is still set.
func (r *mongoAvailabilityRepo) ClaimSlots(ctx context.Context, recordID string, rangeMask slots.Bitmask) error {
	if rangeMask == 0 {
		return ErrSlotsUnavailable
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":           recordID,
		"availableBit": bson.M{"$bitsAllSet": int64(rangeMask)},
	}
	update := bson.M{
		"$bit":         bson.M{"availableBit": bson.M{"and": int64(^rangeMask)}},
		"$currentDate": bson.M{"updatedAt": true},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to claim slots: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrSlotsUnavailable
	}
	return nil
}

// ReleaseSlots sets rangeMask again. Releasing free slots is a no-op.
func (r *mongoAvailabilityRepo) ReleaseSlots(ctx context.Context, recordID string, rangeMask slots.Bitmask) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$bit":         bson.M{"availableBit": bson.M{"or": int64(rangeMask)}},
		"$currentDate": bson.M{"updatedAt": true},
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": recordID}, update)
	if err != nil {
		return fmt.Errorf("failed to release slots: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
