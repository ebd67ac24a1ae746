package booking

import (
	"context"
	"fmt"
	"strings"

	"servicely/models"
	"servicely/services/notification"
	"servicely/services/slots"
	"servicely/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateBookingFromSlotSearch reserves a slot for every candidate provider without
// touching any bitmask. Bits are only claimed when one provider accepts.
func (s *DefaultBookingService) CreateBookingFromSlotSearch(ctx context.Context, userID string, req models.CreateBookingRequest) (*models.BookingResult, error) {
	slot, booking, err := s.buildReservation(userID, req)
	if err != nil {
		utils.IncBooking("create", CodeInvalidInput)
		return nil, err
	}

	err = s.tx.RunInTransaction(ctx, func(tx context.Context) error {
		if err := s.bookings.CreateBookedSlot(tx, slot); err != nil {
			return err
		}
		return s.bookings.CreateBooking(tx, booking)
	})
	if err != nil {
		err = classify(err, "booking")
		utils.IncBooking("create", Code(err))
		return nil, err
	}
	utils.IncBooking("create", "ok")

	s.logger.Info("booking initiated",
		zap.String("bookingID", booking.ID),
		zap.Strings("providers", slot.Providers),
		zap.String("start", slot.StartTime),
		zap.Int("minutes", slot.SlotTiming),
	)

	events := make([]models.Event, 0, len(slot.Providers))
	for _, p := range slot.Providers {
		events = append(events, models.Event{
			Type:      models.EventBookingRequested,
			BookingID: booking.ID,
			Message:   fmt.Sprintf("New %d minute job on %s at %s", slot.SlotTiming, slot.Date.Format("2006-01-02"), slot.StartTime),
			Recipient: models.Recipient{Role: utils.RoleProvider, ID: p},
		})
	}
	s.notify(ctx, events)

	return &models.BookingResult{Booking: *booking, BookedSlot: *slot}, nil
}

func (s *DefaultBookingService) buildReservation(userID string, req models.CreateBookingRequest) (*models.BookedSlot, *models.Booking, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil, invalidInput("user is required")
	}
	if req.ServiceID == "" {
		return nil, nil, invalidInput("serviceId is required")
	}

	providers := make([]string, 0, len(req.ProviderIDs))
	seen := make(map[string]struct{}, len(req.ProviderIDs))
	for _, p := range req.ProviderIDs {
		if !validID(p) {
			return nil, nil, invalidInput("provider id %q is malformed", p)
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		providers = append(providers, p)
	}
	if len(providers) == 0 {
		return nil, nil, invalidInput("at least one provider is required")
	}

	now := s.now().UTC()
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, nil, invalidInput("date %q must be YYYY-MM-DD", req.Date)
	}
	if date.Before(models.NormalizeDate(now)) {
		return nil, nil, invalidInput("date %s is in the past", req.Date)
	}

	start, err := slots.ParseClock(req.StartTime)
	if err != nil {
		return nil, nil, invalidInput("%v", err)
	}
	if start%slots.SlotMinutes != 0 {
		return nil, nil, invalidInput("startTime %s is not on a slot boundary", req.StartTime)
	}
	count := slots.SlotsForDuration(req.DurationMinutes)
	if count < 1 || count > slots.MaxSlots {
		return nil, nil, invalidInput("duration %d is out of range", req.DurationMinutes)
	}
	end := start + count*slots.SlotMinutes
	if end > 24*60 {
		return nil, nil, invalidInput("booking runs past midnight")
	}

	if req.ActualPrice < 0 || req.Discount < 0 || req.Taxes < 0 {
		return nil, nil, invalidInput("prices must not be negative")
	}
	finalPrice := req.ActualPrice - req.Discount + req.Taxes
	if finalPrice < 0 {
		return nil, nil, invalidInput("discount exceeds price")
	}

	slot := &models.BookedSlot{
		ID:         uuid.New().String(),
		Providers:  providers,
		ServiceID:  req.ServiceID,
		Date:       date,
		StartTime:  slots.FormatClock(start),
		EndTime:    slots.FormatClock(end),
		SlotTiming: req.DurationMinutes,
		Status:     models.SlotInitiated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	booking := &models.Booking{
		ID:            uuid.New().String(),
		BookedSlotID:  slot.ID,
		CartID:        req.CartID,
		UserID:        userID,
		ServiceID:     req.ServiceID,
		ActualPrice:   req.ActualPrice,
		Discount:      req.Discount,
		Taxes:         req.Taxes,
		FinalPrice:    finalPrice,
		Status:        models.BookingInitiated,
		Address:       req.Address,
		TransactionID: req.TransactionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return slot, booking, nil
}

// notify delivers events after a commit. Delivery failures never undo the booking.
func (s *DefaultBookingService) notify(ctx context.Context, events []models.Event) {
	if s.notifier == nil || len(events) == 0 {
		return
	}
	now := s.now().UTC()
	for i := range events {
		events[i].SentAt = now
	}
	if err := notification.NotifyAll(ctx, s.notifier, events); err != nil {
		s.logger.Warn("booking notification failed",
			zap.String("bookingID", events[0].BookingID),
			zap.Error(err),
		)
	}
}
