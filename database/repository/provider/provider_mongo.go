package providerRepo

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

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	coll          *mongo.Collection
	locationsColl *mongo.Collection
}

// NewMongoProviderRepo creates a new instance of ProviderRepository using MongoDB.
func NewMongoProviderRepo(db *mongo.Database) ProviderRepository {
	return &MongoProviderRepo{
		coll:          db.Collection("providers"),
		locationsColl: db.Collection("provider_locations"),
	}
}

func (r *MongoProviderRepo) findOne(ctx context.Context, id string, opts ...*options.FindOneOptions) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var provider models.Provider
	if err := r.coll.FindOne(ctx, bson.M{"id": id}, opts...).Decode(&provider); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch provider with id %s: %w", id, err)
	}
	return &provider, nil
}

func (r *MongoProviderRepo) GetLocation(ctx context.Context, id string) (models.GeoPoint, error) {
	projection := bson.M{"id": 1, "locationGeo": 1}
	provider, err := r.findOne(ctx, id, options.FindOne().SetProjection(projection))
	if err != nil {
		return models.GeoPoint{}, err
	}
	if !provider.LocationGeo.Valid() {
		return models.GeoPoint{}, ErrNoLocation
	}
	return provider.LocationGeo, nil
}

func (r *MongoProviderRepo) GetFCMToken(ctx context.Context, id string) (string, error) {
	projection := bson.M{"id": 1, "fcmToken": 1}
	provider, err := r.findOne(ctx, id, options.FindOne().SetProjection(projection))
	if err != nil {
		return "", err
	}
	return provider.FCMToken, nil
}
