package booking

import (
	"context"
	"errors"

	availabilityRepo "servicely/database/repository/availability"
	schedulerRepo "servicely/database/repository/scheduler"
	"servicely/models"
	"servicely/services/slots"
	"servicely/utils"

	"go.uber.org/zap"
)

// CancelBooking cancels a booking on behalf of its user or its confirmed provider.
// A confirmed slot gives its bits back to the provider in the same transaction.
// The refund and notifications follow the commit.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, bookingID string, actor models.Recipient) (*models.Booking, error) {
	if !validID(bookingID) || actor.ID == "" {
		utils.IncBooking("cancel", CodeInvalidInput)
		return nil, invalidInput("booking id must be a valid identifier")
	}

	var (
		cancelled models.Booking
		slot      models.BookedSlot
	)
	err := s.tx.RunInTransaction(ctx, func(tx context.Context) error {
		booking, err := s.bookings.GetBooking(tx, bookingID)
		if err != nil {
			return classify(err, "booking")
		}
		bookedSlot, err := s.bookings.GetBookedSlot(tx, booking.BookedSlotID)
		if err != nil {
			return classify(err, "booked slot")
		}
		if !canCancel(actor, booking) {
			return newError(CodeForbidden, "only the booking's user or provider can cancel it", nil)
		}
		if !booking.Cancellable() {
			return conflict("booking can no longer be cancelled", nil)
		}

		from := []string{models.BookingInitiated, models.BookingPending, models.BookingConfirmed}
		if err := s.bookings.UpdateBookingStatus(tx, booking.ID, from, models.BookingCanceled, ""); err != nil {
			if errors.Is(err, schedulerRepo.ErrNotFound) {
				return conflict("booking changed while cancelling", err)
			}
			return err
		}
		if err := s.bookings.CancelBookedSlot(tx, bookedSlot.ID); err != nil && !errors.Is(err, schedulerRepo.ErrNotFound) {
			return err
		}

		if bookedSlot.Status == models.SlotConfirmed && len(bookedSlot.Providers) == 1 {
			if err := s.releaseSlots(tx, bookedSlot); err != nil {
				return err
			}
		}

		cancelled = *booking
		cancelled.Status = models.BookingCanceled
		slot = *bookedSlot
		return nil
	})
	if err != nil {
		err = classify(err, "booking")
		utils.IncBooking("cancel", Code(err))
		return nil, err
	}
	utils.IncBooking("cancel", "ok")
	s.logger.Info("booking cancelled",
		zap.String("bookingID", bookingID),
		zap.String("by", actor.Role),
	)

	if cancelled.TransactionID != "" && s.refunder != nil {
		if _, err := s.refunder.Refund(ctx, cancelled.ID, cancelled.TransactionID); err != nil {
			utils.IncBooking("refund", CodeInternal)
			s.logger.Error("refund failed, needs manual reconciliation",
				zap.String("bookingID", cancelled.ID),
				zap.String("transactionID", cancelled.TransactionID),
				zap.Error(err),
			)
		} else {
			utils.IncBooking("refund", "ok")
		}
	}

	s.notify(ctx, cancellationEvents(actor, &cancelled, &slot))
	return &cancelled, nil
}

func canCancel(actor models.Recipient, booking *models.Booking) bool {
	switch actor.Role {
	case utils.RoleUser:
		return booking.UserID == actor.ID
	case utils.RoleProvider:
		return booking.ProviderID != "" && booking.ProviderID == actor.ID
	}
	return false
}

// releaseSlots restores the slot's range on the provider's record.
func (s *DefaultBookingService) releaseSlots(tx context.Context, slot *models.BookedSlot) error {
	providerID := slot.Providers[0]
	rec, err := s.records.GetByProviderAndDate(tx, providerID, slot.Date)
	if err != nil {
		if errors.Is(err, availabilityRepo.ErrNotFound) {
			s.logger.Warn("no availability record to restore",
				zap.String("providerID", providerID),
				zap.Time("date", slot.Date),
			)
			return nil
		}
		return err
	}
	start, count, err := slotRange(rec, slot)
	if err != nil {
		return newError(CodeInternal, "could not locate slot in provider window", err)
	}
	return s.records.ReleaseSlots(tx, rec.ID, slots.RangeMask(start, count))
}

func cancellationEvents(actor models.Recipient, booking *models.Booking, slot *models.BookedSlot) []models.Event {
	msg := "Booking on " + slot.Date.Format("2006-01-02") + " at " + slot.StartTime + " was cancelled"
	event := func(r models.Recipient) models.Event {
		return models.Event{Type: models.EventBookingCancelled, BookingID: booking.ID, Message: msg, Recipient: r}
	}

	if actor.Role == utils.RoleProvider {
		return []models.Event{event(models.Recipient{Role: utils.RoleUser, ID: booking.UserID})}
	}
	events := make([]models.Event, 0, len(slot.Providers))
	for _, p := range slot.Providers {
		events = append(events, event(models.Recipient{Role: utils.RoleProvider, ID: p}))
	}
	return events
}

// GetBooking returns a booking and its slot to the user who made it or to a provider
// it is offered to.
func (s *DefaultBookingService) GetBooking(ctx context.Context, bookingID string, actor models.Recipient) (*models.BookingResult, error) {
	if !validID(bookingID) {
		return nil, invalidInput("booking id must be a valid identifier")
	}
	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, classify(err, "booking")
	}
	slot, err := s.bookings.GetBookedSlot(ctx, booking.BookedSlotID)
	if err != nil {
		return nil, classify(err, "booked slot")
	}

	allowed := false
	switch actor.Role {
	case utils.RoleUser:
		allowed = booking.UserID == actor.ID
	case utils.RoleProvider:
		allowed = booking.ProviderID == actor.ID || slot.HasProvider(actor.ID)
	}
	if !allowed {
		return nil, notFound("booking not found", nil)
	}
	return &models.BookingResult{Booking: *booking, BookedSlot: *slot}, nil
}
