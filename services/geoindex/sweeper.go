package geoindex

import (
	"context"
	"fmt"
	"time"

	"servicely/models"

	"go.uber.org/zap"
)

// LocationWriter persists positions flushed from the live index.
type LocationWriter interface {
	UpsertLocations(ctx context.Context, locations []models.ProviderLocation) (int64, error)
}

// SweepResult summarises one reconciliation pass.
type SweepResult struct {
	Keys        int
	Positions   int
	Pruned      int
	Persisted   int64
	TTLRestored int
}

// Sweeper drops stale members, flushes the remaining live positions into durable
// storage and repairs missing TTLs.
// A pass is idempotent.
type Sweeper struct {
	index  *RedisGeoIndex
	writer LocationWriter
	logger *zap.Logger
}

func NewSweeper(index *RedisGeoIndex, writer LocationWriter, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{index: index, writer: writer, logger: logger}
}

func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var res SweepResult

	keys, err := s.index.Keys(ctx)
	if err != nil {
		return res, err
	}
	res.Keys = len(keys)

	now := time.Now().UTC()
	var locations []models.ProviderLocation
	for _, key := range keys {
		serviceID := ServiceIDFromKey(key)

		pruned, err := s.index.Prune(ctx, serviceID)
		if err != nil {
			s.logger.Warn("sweep: failed to prune stale members", zap.String("key", key), zap.Error(err))
			continue
		}
		res.Pruned += pruned

		positions, err := s.index.Positions(ctx, key)
		if err != nil {
			s.logger.Warn("sweep: failed to read positions", zap.String("key", key), zap.Error(err))
			continue
		}
		for _, p := range positions {
			locations = append(locations, models.ProviderLocation{
				ProviderID: p.ProviderID,
				ServiceID:  serviceID,
				Location:   models.NewGeoPoint(p.Lon, p.Lat),
				UpdatedAt:  now,
			})
		}

		restored, err := s.index.RestoreTTL(ctx, serviceID)
		if err != nil {
			s.logger.Warn("sweep: failed to restore ttl", zap.String("key", key), zap.Error(err))
			continue
		}
		if restored {
			res.TTLRestored++
		}
	}
	res.Positions = len(locations)

	if len(locations) > 0 {
		n, err := s.writer.UpsertLocations(ctx, locations)
		if err != nil {
			return res, fmt.Errorf("sweep: persist locations: %w", err)
		}
		res.Persisted = n
	}

	s.logger.Info("geo index sweep complete",
		zap.Int("keys", res.Keys),
		zap.Int("positions", res.Positions),
		zap.Int("pruned", res.Pruned),
		zap.Int64("persisted", res.Persisted),
		zap.Int("ttlRestored", res.TTLRestored),
	)
	return res, nil
}
