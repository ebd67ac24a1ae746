// File: database/repository/availability/queries.go
package availabilityRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servicely/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *mongoAvailabilityRepo) GetByProviderAndDate(ctx context.Context, providerID string, date time.Time) (*models.AvailabilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"providerId": providerID, "date": models.NormalizeDate(date)}
	var rec models.AvailabilityRecord
	if err := r.coll.FindOne(ctx, filter).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find availability error: %w", err)
	}
	return &rec, nil
}

func (r *mongoAvailabilityRepo) ListFromDate(ctx context.Context, providerID string, from time.Time) ([]models.AvailabilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"providerId": providerID,
		"date":       bson.M{"$gte": models.NormalizeDate(from)},
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.AvailabilityRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("error decoding availability: %w", err)
	}
	return records, nil
}

// FindActiveByProvidersAndDate returns the active records of the given providers on one day.
// Only the fields the allocator reads are projected.
func (r *mongoAvailabilityRepo) FindActiveByProvidersAndDate(ctx context.Context, providerIDs []string, date time.Time) ([]models.AvailabilityRecord, error) {
	if len(providerIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"providerId": bson.M{"$in": providerIDs},
		"date":       models.NormalizeDate(date),
		"isActive":   true,
	}
	projection := bson.M{
		"id":           1,
		"providerId":   1,
		"serviceIds":   1,
		"date":         1,
		"startTime":    1,
		"endTime":      1,
		"isActive":     1,
		"availableBit": 1,
	}

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch availability: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.AvailabilityRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("error decoding availability: %w", err)
	}
	return records, nil
}
