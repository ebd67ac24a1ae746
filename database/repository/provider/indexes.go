package providerRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoProviderRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	base := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "serviceIds", Value: 1}}},
		{Keys: bson.D{{Key: "locationGeo", Value: "2dsphere"}}},
	}
	if _, err := r.coll.Indexes().CreateMany(ctx, base); err != nil {
		return fmt.Errorf("failed to create provider indexes: %w", err)
	}

	locations := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "serviceId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "serviceId", Value: 1}, {Key: "location", Value: "2dsphere"}}},
	}
	if _, err := r.locationsColl.Indexes().CreateMany(ctx, locations); err != nil {
		return fmt.Errorf("failed to create provider location indexes: %w", err)
	}
	return nil
}
