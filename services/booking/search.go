package booking

import (
	"context"
	"errors"

	"servicely/models"
	"servicely/services/allocator"
	"servicely/services/geoindex"
	"servicely/utils"

	"go.uber.org/zap"
)

// SearchProviders finds live providers near the request point and lists the durations
// each can take from the next slot boundary. No availability is an empty result.
func (s *DefaultBookingService) SearchProviders(ctx context.Context, req models.SlotSearchRequest) ([]models.ProviderAvailability, error) {
	if req.ServiceID == "" {
		return nil, invalidInput("serviceId is required")
	}
	radius := req.RadiusKm
	if radius <= 0 {
		radius = s.radiusKm
	}

	now := s.now().UTC()
	date := models.NormalizeDate(now)
	if req.Date != "" {
		d, err := models.ParseDate(req.Date)
		if err != nil {
			return nil, invalidInput("date %q must be YYYY-MM-DD", req.Date)
		}
		if d.Before(date) {
			return nil, invalidInput("date %s is in the past", req.Date)
		}
		date = d
	}

	nearby, err := s.geo.Search(ctx, req.ServiceID, req.Lon, req.Lat, radius)
	if err != nil {
		if errors.Is(err, geoindex.ErrInvalidCoordinates) || errors.Is(err, geoindex.ErrInvalidRadius) {
			return nil, invalidInput("%v", err)
		}
		return nil, newError(CodeInternal, "provider search failed", err)
	}
	if len(nearby) == 0 {
		utils.ObserveSearchResults(0)
		return []models.ProviderAvailability{}, nil
	}

	ids := make([]string, 0, len(nearby))
	for _, p := range nearby {
		ids = append(ids, p.ProviderID)
	}
	records, err := s.finder.FindByProvidersAndDate(ctx, ids, date)
	if err != nil {
		return nil, newError(CodeInternal, "availability lookup failed", err)
	}

	result := allocator.Allocate(records, nearby, now, s.durations)
	utils.ObserveSearchResults(len(result))
	s.logger.Debug("slot search",
		zap.String("serviceID", req.ServiceID),
		zap.Int("nearby", len(nearby)),
		zap.Int("available", len(result)),
	)
	return result, nil
}
