package availabilityRepo

import (
	"context"
	"testing"
	"time"

	"servicely/models"
	"servicely/services/slots"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func recordDoc(id, providerID string, date time.Time, mask slots.Bitmask, active bool) bson.D {
	return bson.D{
		{Key: "id", Value: id},
		{Key: "providerId", Value: providerID},
		{Key: "serviceIds", Value: bson.A{"svc-1"}},
		{Key: "date", Value: date},
		{Key: "startTime", Value: "08:00"},
		{Key: "endTime", Value: "18:00"},
		{Key: "isActive", Value: active},
		{Key: "availableBit", Value: int64(mask)},
	}
}

func TestMongoAvailabilityRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)

	mt.Run("GetByProviderAndDate decodes record", func(mt *mtest.T) {
		repo := NewMongoAvailabilityRepo(mt.DB)
		ns := mt.DB.Name() + ".availability"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			recordDoc("rec-1", "prov-1", day, slots.FullMask(20), true)))

		rec, err := repo.GetByProviderAndDate(ctx, "prov-1", day.Add(15*time.Hour))
		require.NoError(mt, err)
		assert.Equal(mt, "rec-1", rec.ID)
		assert.Equal(mt, slots.FullMask(20), rec.AvailableBit)
		assert.True(mt, rec.Date.Equal(day))
		assert.True(mt, rec.IsActive)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "find", started.CommandName)
	})

	mt.Run("GetByProviderAndDate not found", func(mt *mtest.T) {
		repo := NewMongoAvailabilityRepo(mt.DB)
		ns := mt.DB.Name() + ".availability"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByProviderAndDate(ctx, "prov-1", day)
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("CreateMany assigns ids and normalizes dates", func(mt *mtest.T) {
		repo := NewMongoAvailabilityRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		records := []models.AvailabilityRecord{
			{ProviderID: "prov-1", Date: day.Add(9 * time.Hour), StartTime: "08:00", EndTime: "18:00"},
			{ProviderID: "prov-1", Date: day.AddDate(0, 0, 1), StartTime: "08:00", EndTime: "18:00"},
		}
		require.NoError(mt, repo.CreateMany(ctx, records))
		for _, rec := range records {
			assert.NotEmpty(mt, rec.ID)
			assert.Zero(mt, rec.Date.Hour())
		}
	})

	mt.Run("CreateMany duplicate key", func(mt *mtest.T) {
		repo := NewMongoAvailabilityRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.CreateMany(ctx, []models.AvailabilityRecord{{ProviderID: "prov-1", Date: day}})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("FindActiveByProvidersAndDate", func(mt *mtest.T) {
		repo := NewMongoAvailabilityRepo(mt.DB)
		ns := mt.DB.Name() + ".availability"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			recordDoc("rec-1", "prov-1", day, slots.FullMask(20), true),
			recordDoc("rec-2", "prov-2", day, slots.FullMask(10), true),
		))

		recs, err := repo.FindActiveByProvidersAndDate(ctx, []string{"prov-1", "prov-2"}, day)
		require.NoError(mt, err)
		require.Len(mt, recs, 2)
		assert.Equal(mt, "prov-2", recs[1].ProviderID)
	})

	mt.Run("FindActiveByProvidersAndDate without providers skips the query", func(mt *mtest.T) {
		repo := NewMongoAvailabilityRepo(mt.DB)
		recs, err := repo.FindActiveByProvidersAndDate(ctx, nil, day)
		require.NoError(mt, err)
		assert.Empty(mt, recs)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("ToggleActive returns updated record", func(mt *mtest.T) {
		repo := NewMongoAvailabilityRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "value", Value: recordDoc("rec-1", "prov-1", day, slots.FullMask(20), false)},
		))

		rec, err := repo.ToggleActive(ctx, "prov-1", day)
		require.NoError(mt, err)
		assert.False(mt, rec.IsActive)
	})

	mt.Run("ClaimSlots succeeds when matched", func(mt *mtest.T) {
		repo := NewMongoAvailabilityRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		require.NoError(mt, repo.ClaimSlots(ctx, "rec-1", slots.RangeMask(4, 2)))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "update", started.CommandName)
	})

	mt.Run("ClaimSlots reports taken slots", func(mt *mtest.T) {
		repo := NewMongoAvailabilityRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.ClaimSlots(ctx, "rec-1", slots.RangeMask(4, 2))
		assert.ErrorIs(mt, err, ErrSlotsUnavailable)
	})

	mt.Run("ClaimSlots rejects an empty range without a round trip", func(mt *mtest.T) {
		repo := NewMongoAvailabilityRepo(mt.DB)
		err := repo.ClaimSlots(ctx, "rec-1", 0)
		assert.ErrorIs(mt, err, ErrSlotsUnavailable)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("ReleaseSlots missing record", func(mt *mtest.T) {
		repo := NewMongoAvailabilityRepo(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := repo.ReleaseSlots(ctx, "missing", slots.RangeMask(4, 2))
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}
