// Package allocator decides which durations each nearby provider can take right now.
// Everything here is pure computation over records that were already fetched.
package allocator

import (
	"time"

	"servicely/models"
	"servicely/services/slots"
)

// DefaultDurations are the candidate job lengths in minutes.
var DefaultDurations = []int{30, 45, 60, 75, 90}

// RoundUp returns the next slot boundary after now, in minutes after midnight.
// Minutes up to :30 round to :30, anything later rounds to the next hour.
func RoundUp(now time.Time) int {
	h, m := now.Hour(), now.Minute()
	if m <= 30 {
		return h*60 + 30
	}
	return (h + 1) * 60
}

// CurrentTimeIndex returns the first slot of rec that can still be booked at now.
// Future days start at slot 0; past days return -1, which no range check accepts.
func CurrentTimeIndex(now time.Time, rec models.AvailabilityRecord) (int, error) {
	now = now.UTC()
	today := models.NormalizeDate(now)
	day := models.NormalizeDate(rec.Date)

	switch {
	case day.After(today):
		return 0, nil
	case day.Before(today):
		return -1, nil
	}

	origin, err := slots.ParseClock(rec.StartTime)
	if err != nil {
		return 0, err
	}
	offset := RoundUp(now) - origin
	if offset <= 0 {
		return 0, nil
	}
	return (offset + slots.SlotMinutes - 1) / slots.SlotMinutes, nil
}

// Allocate walks providers in discovery order and lists, for each, the durations
// that fit in consecutive free slots starting at the current index. Providers with
// no feasible duration, no active record, or a malformed window are left out.
func Allocate(records []models.AvailabilityRecord, order []models.NearbyProvider, now time.Time, durations []int) []models.ProviderAvailability {
	if len(durations) == 0 {
		durations = DefaultDurations
	}

	byProvider := make(map[string]models.AvailabilityRecord, len(records))
	for _, rec := range records {
		if _, ok := byProvider[rec.ProviderID]; !ok {
			byProvider[rec.ProviderID] = rec
		}
	}

	out := make([]models.ProviderAvailability, 0, len(order))
	seen := make(map[string]struct{}, len(order))
	for _, p := range order {
		if _, dup := seen[p.ProviderID]; dup {
			continue
		}
		seen[p.ProviderID] = struct{}{}

		rec, ok := byProvider[p.ProviderID]
		if !ok || !rec.IsActive {
			continue
		}
		idx, err := CurrentTimeIndex(now, rec)
		if err != nil || idx < 0 {
			continue
		}

		var feasible []int
		for _, d := range durations {
			if slots.HasConsecutiveFree(rec.AvailableBit, idx, slots.SlotsForDuration(d)) {
				feasible = append(feasible, d)
			}
		}
		if len(feasible) == 0 {
			continue
		}

		origin, _ := slots.ParseClock(rec.StartTime)
		out = append(out, models.ProviderAvailability{
			ProviderID:         p.ProviderID,
			DistanceKm:         p.DistanceKm,
			StartTime:          slots.FormatClock(origin + idx*slots.SlotMinutes),
			AvailableDurations: feasible,
		})
	}
	return out
}
