package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	availabilityRepo "servicely/database/repository/availability"
	"servicely/models"
	"servicely/services/geoindex"
	"servicely/services/slots"

	"go.uber.org/zap"
)

// AvailabilityService owns availability records and keeps the live geo index in step
// with the active flag.
type AvailabilityService struct {
	repo      availabilityRepo.AvailabilityRepository
	geo       geoindex.GeoIndex
	locations LocationSource
	logger    *zap.Logger
}

func NewAvailabilityService(
	repo availabilityRepo.AvailabilityRepository,
	geo geoindex.GeoIndex,
	locations LocationSource,
	logger *zap.Logger,
) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{repo: repo, geo: geo, locations: locations, logger: logger}
}

// GetOrCreateWindow returns the provider's records from today on. The first call for a
// day creates WindowDays fully free records; later calls return what exists untouched.
func (s *AvailabilityService) GetOrCreateWindow(
	ctx context.Context,
	providerID string,
	serviceIDs []string,
	start, end string,
	today time.Time,
) ([]models.AvailabilityRecord, error) {
	if providerID == "" || len(serviceIDs) == 0 {
		return nil, fmt.Errorf("%w: provider and at least one service are required", ErrInvalidInput)
	}
	mask, err := slots.WindowMask(start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	today = models.NormalizeDate(today)

	_, err = s.repo.GetByProviderAndDate(ctx, providerID, today)
	switch {
	case err == nil:
		return s.repo.ListFromDate(ctx, providerID, today)
	case !errors.Is(err, availabilityRepo.ErrNotFound):
		return nil, err
	}

	records := make([]models.AvailabilityRecord, WindowDays)
	for i := range records {
		records[i] = models.AvailabilityRecord{
			ProviderID:   providerID,
			ServiceIDs:   serviceIDs,
			Date:         today.AddDate(0, 0, i),
			StartTime:    start,
			EndTime:      end,
			IsActive:     true,
			AvailableBit: mask,
		}
	}

	if err := s.repo.CreateMany(ctx, records); err != nil {
		if !errors.Is(err, availabilityRepo.ErrDuplicate) {
			return nil, err
		}
		// a concurrent registration or a later day created earlier won the insert
		s.logger.Info("availability window already exists, re-reading",
			zap.String("providerID", providerID),
			zap.Time("date", today),
		)
		return s.repo.ListFromDate(ctx, providerID, today)
	}

	s.logger.Info("availability window created",
		zap.String("providerID", providerID),
		zap.Int("days", WindowDays),
		zap.String("window", start+"-"+end),
	)
	return records, nil
}

// ToggleActive flips the provider's active flag for today, then mirrors it into the
// geo index. Index failures do not undo the flip; they are reported in the status.
func (s *AvailabilityService) ToggleActive(ctx context.Context, providerID string, today time.Time) (*models.ToggleResult, error) {
	rec, err := s.repo.ToggleActive(ctx, providerID, today)
	if err != nil {
		if errors.Is(err, availabilityRepo.ErrNotFound) {
			return nil, ErrNoWindow
		}
		return nil, err
	}

	result := &models.ToggleResult{IsActive: rec.IsActive}
	if rec.IsActive {
		result.Status = models.ToggleActivated
		result.FailedServices = s.addToIndex(ctx, providerID, rec.ServiceIDs)
		if len(result.FailedServices) > 0 {
			result.Status = models.ToggleFailedToAddGeo
		}
	} else {
		result.Status = models.ToggleDeactivated
		result.FailedServices = s.removeFromIndex(ctx, providerID, rec.ServiceIDs)
		if len(result.FailedServices) > 0 {
			result.Status = models.ToggleFailedToRemoveGeo
		}
	}

	if result.PartialFailure() {
		s.logger.Warn("availability toggled but geo index is out of sync",
			zap.String("providerID", providerID),
			zap.String("status", string(result.Status)),
			zap.Strings("services", result.FailedServices),
		)
	}
	return result, nil
}

func (s *AvailabilityService) addToIndex(ctx context.Context, providerID string, serviceIDs []string) []string {
	loc, err := s.locations.GetLocation(ctx, providerID)
	if err != nil {
		s.logger.Warn("no position to publish provider", zap.String("providerID", providerID), zap.Error(err))
		return append([]string(nil), serviceIDs...)
	}

	var failed []string
	for _, serviceID := range serviceIDs {
		if err := s.geo.Add(ctx, serviceID, providerID, loc.Lon(), loc.Lat()); err != nil {
			s.logger.Warn("geo add failed", zap.String("serviceID", serviceID), zap.Error(err))
			failed = append(failed, serviceID)
		}
	}
	return failed
}

func (s *AvailabilityService) removeFromIndex(ctx context.Context, providerID string, serviceIDs []string) []string {
	var failed []string
	for _, serviceID := range serviceIDs {
		if err := s.geo.Remove(ctx, serviceID, providerID); err != nil {
			s.logger.Warn("geo remove failed", zap.String("serviceID", serviceID), zap.Error(err))
			failed = append(failed, serviceID)
		}
	}
	return failed
}

// FindByProvidersAndDate returns the active records of providerIDs on date.
func (s *AvailabilityService) FindByProvidersAndDate(ctx context.Context, providerIDs []string, date time.Time) ([]models.AvailabilityRecord, error) {
	return s.repo.FindActiveByProvidersAndDate(ctx, providerIDs, date)
}

func (s *AvailabilityService) ListForProvider(ctx context.Context, providerID string, from time.Time) ([]models.AvailabilityRecord, error) {
	return s.repo.ListFromDate(ctx, providerID, from)
}

// UpdateLocation publishes a position ping for each requested service the provider
// offers today. Offline providers are not published. Returns the services indexed.
func (s *AvailabilityService) UpdateLocation(
	ctx context.Context,
	providerID string,
	req models.LocationUpdateRequest,
	today time.Time,
) ([]string, error) {
	if !models.NewGeoPoint(req.Lon, req.Lat).Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	rec, err := s.repo.GetByProviderAndDate(ctx, providerID, today)
	if err != nil {
		if errors.Is(err, availabilityRepo.ErrNotFound) {
			return nil, ErrNoWindow
		}
		return nil, err
	}
	if !rec.IsActive {
		return nil, nil
	}

	offered := make(map[string]struct{}, len(rec.ServiceIDs))
	for _, id := range rec.ServiceIDs {
		offered[id] = struct{}{}
	}

	var indexed []string
	for _, serviceID := range req.ServiceIDs {
		if _, ok := offered[serviceID]; !ok {
			continue
		}
		if err := s.geo.Add(ctx, serviceID, providerID, req.Lon, req.Lat); err != nil {
			return indexed, err
		}
		indexed = append(indexed, serviceID)
	}
	return indexed, nil
}
