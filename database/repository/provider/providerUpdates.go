package providerRepo

import (
	"context"
	"fmt"
	"time"

	"servicely/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UpsertLocations writes one document per (provider, service) and mirrors the position
// onto the provider profile. Returns the number of location documents upserted or modified.
func (r *MongoProviderRepo) UpsertLocations(ctx context.Context, locations []models.ProviderLocation) (int64, error) {
	if len(locations) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	locModels := make([]mongo.WriteModel, 0, len(locations))
	profileModels := make([]mongo.WriteModel, 0, len(locations))
	seen := make(map[string]struct{}, len(locations))
	for _, loc := range locations {
		updatedAt := loc.UpdatedAt
		if updatedAt.IsZero() {
			updatedAt = time.Now().UTC()
		}
		locModels = append(locModels, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"providerId": loc.ProviderID, "serviceId": loc.ServiceID}).
			SetUpdate(bson.M{"$set": bson.M{"location": loc.Location, "updatedAt": updatedAt}}).
			SetUpsert(true))

		if _, ok := seen[loc.ProviderID]; ok {
			continue
		}
		seen[loc.ProviderID] = struct{}{}
		profileModels = append(profileModels, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"id": loc.ProviderID}).
			SetUpdate(bson.M{"$set": bson.M{"locationGeo": loc.Location}}))
	}

	opts := options.BulkWrite().SetOrdered(false)
	res, err := r.locationsColl.BulkWrite(ctx, locModels, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert provider locations: %w", err)
	}
	if _, err := r.coll.BulkWrite(ctx, profileModels, opts); err != nil {
		return 0, fmt.Errorf("failed to update provider profiles: %w", err)
	}
	return res.UpsertedCount + res.ModifiedCount, nil
}

func (r *MongoProviderRepo) SetFCMToken(ctx context.Context, id, token string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := r.coll.UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": bson.M{"fcmToken": token}})
	if err != nil {
		return fmt.Errorf("failed to update fcm token: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
