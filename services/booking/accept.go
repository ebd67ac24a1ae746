package booking

import (
	"context"
	"errors"
	"fmt"

	availabilityRepo "servicely/database/repository/availability"
	"servicely/models"
	"servicely/services/slots"
	"servicely/utils"

	"go.uber.org/zap"
)

// AcceptBooking lets one candidate provider take an initiated booking. Loading the
// booking and slot, narrowing the candidates, confirming the booking and claiming the
// bits all commit together or not at all. Of two providers racing for the same slot,
// exactly one wins; the loser gets NotFound or Conflict.
func (s *DefaultBookingService) AcceptBooking(ctx context.Context, bookingID, providerID string) (*models.Booking, error) {
	if !validID(bookingID) || !validID(providerID) {
		utils.IncBooking("accept", CodeInvalidInput)
		return nil, invalidInput("booking and provider ids must be valid identifiers")
	}

	var (
		accepted models.Booking
		slot     models.BookedSlot
	)
	err := s.tx.RunInTransaction(ctx, func(tx context.Context) error {
		booking, err := s.bookings.FindInitiatedBooking(tx, bookingID)
		if err != nil {
			return classify(err, "initiated booking")
		}
		bookedSlot, err := s.bookings.FindInitiatedBookedSlot(tx, booking.BookedSlotID, providerID)
		if err != nil {
			return classify(err, "slot offered to this provider")
		}

		if err := s.bookings.ConfirmBookedSlot(tx, bookedSlot.ID, providerID); err != nil {
			return classify(err, "slot offered to this provider")
		}
		if err := s.bookings.UpdateBookingStatus(tx, booking.ID, []string{models.BookingInitiated}, models.BookingConfirmed, providerID); err != nil {
			return classify(err, "initiated booking")
		}

		if err := s.claimSlots(tx, providerID, bookedSlot); err != nil {
			return err
		}

		accepted = *booking
		accepted.Status = models.BookingConfirmed
		accepted.ProviderID = providerID
		slot = *bookedSlot
		return nil
	})
	if err != nil {
		err = classify(err, "booking")
		utils.IncBooking("accept", Code(err))
		s.logger.Info("booking accept rejected",
			zap.String("bookingID", bookingID),
			zap.String("providerID", providerID),
			zap.Error(err),
		)
		return nil, err
	}
	utils.IncBooking("accept", "ok")
	s.logger.Info("booking confirmed",
		zap.String("bookingID", bookingID),
		zap.String("providerID", providerID),
	)

	events := []models.Event{{
		Type:      models.EventBookingConfirmed,
		BookingID: accepted.ID,
		Message:   fmt.Sprintf("Your booking on %s at %s is confirmed", slot.Date.Format("2006-01-02"), slot.StartTime),
		Recipient: models.Recipient{Role: utils.RoleUser, ID: accepted.UserID},
	}}
	for _, p := range slot.Providers {
		if p == providerID {
			continue
		}
		events = append(events, models.Event{
			Type:      models.EventBookingUnavailable,
			BookingID: accepted.ID,
			Message:   "This booking was taken by another provider",
			Recipient: models.Recipient{Role: utils.RoleProvider, ID: p},
		})
	}
	s.notify(ctx, events)

	return &accepted, nil
}

// claimSlots re-checks the provider's bitmask inside the transaction and clears the
// slot's range with a conditional update, so a concurrent claim cannot slip in between.
func (s *DefaultBookingService) claimSlots(tx context.Context, providerID string, slot *models.BookedSlot) error {
	rec, err := s.records.GetByProviderAndDate(tx, providerID, slot.Date)
	if err != nil {
		if errors.Is(err, availabilityRepo.ErrNotFound) {
			return notFound("provider availability for this day", err)
		}
		return err
	}

	start, count, err := slotRange(rec, slot)
	if err != nil {
		return conflict("slot does not fit the provider's working window", err)
	}
	if !slots.HasConsecutiveFree(rec.AvailableBit, start, count) {
		return conflict("provider is already booked for this time", availabilityRepo.ErrSlotsUnavailable)
	}
	if err := s.records.ClaimSlots(tx, rec.ID, slots.RangeMask(start, count)); err != nil {
		return classify(err, "slot")
	}
	return nil
}

// slotRange locates a booked slot inside a provider's day.
func slotRange(rec *models.AvailabilityRecord, slot *models.BookedSlot) (int, int, error) {
	start, err := slots.IndexFor(slot.StartTime, rec.StartTime)
	if err != nil {
		return 0, 0, err
	}
	count := slots.SlotsForDuration(slot.SlotTiming)
	if start < 0 || count < 1 {
		return 0, 0, fmt.Errorf("slot %s+%dm is outside the window starting %s", slot.StartTime, slot.SlotTiming, rec.StartTime)
	}
	return start, count, nil
}
