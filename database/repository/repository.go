package repository

import (
	"context"

	availabilityRepo "servicely/database/repository/availability"
	providerRepo "servicely/database/repository/provider"
	schedulerRepo "servicely/database/repository/scheduler"
	userRepo "servicely/database/repository/user"

	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the AvailabilityRepository interface and constructor.
type AvailabilityRepository = availabilityRepo.AvailabilityRepository

var NewMongoAvailabilityRepo = availabilityRepo.NewMongoAvailabilityRepo

// Re-export the ProviderRepository interface and constructor.
type ProviderRepository = providerRepo.ProviderRepository

var NewMongoProviderRepo = providerRepo.NewMongoProviderRepo

// Re-export the UserRepository interface and constructor.
type UserRepository = userRepo.UserRepository

var NewMongoUserRepository = userRepo.NewMongoUserRepo

// Re-export the SchedulerRepository interface and constructor.
type SchedulerRepository = schedulerRepo.SchedulerRepository

var NewMongoSchedulerRepo = schedulerRepo.NewMongoSchedulerRepo

// Repositories bundles every repository backed by one database.
type Repositories struct {
	Availability AvailabilityRepository
	Providers    ProviderRepository
	Users        UserRepository
	Scheduler    SchedulerRepository
}

// NewRepositories wires all repositories against db.
func NewRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Availability: NewMongoAvailabilityRepo(db),
		Providers:    NewMongoProviderRepo(db),
		Users:        NewMongoUserRepository(db),
		Scheduler:    NewMongoSchedulerRepo(db),
	}
}

// indexer is satisfied by every repository.
type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureIndexes creates the indexes of every repository.
func (r *Repositories) EnsureIndexes(ctx context.Context) error {
	for _, repo := range []indexer{r.Availability, r.Providers, r.Users, r.Scheduler} {
		if err := repo.EnsureIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}
