package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"servicely/database"
	"servicely/models"
	"servicely/services/slots"
	"servicely/utils"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	clock = time.Date(2026, 10, 16, 9, 45, 0, 0, time.UTC)
	day   = "2026-10-16"

	p1 = uuid.NewString()
	p2 = uuid.NewString()
	p3 = uuid.NewString()
)

type harness struct {
	svc      *DefaultBookingService
	store    *memStore
	geo      *fakeGeo
	events   *recorder
	refunder *fakeRefunder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := newMemStore()
	date, err := models.ParseDate(day)
	require.NoError(t, err)
	for _, p := range []string{p1, p2, p3} {
		require.NoError(t, store.CreateMany(context.Background(), []models.AvailabilityRecord{{
			ID:           "rec-" + p,
			ProviderID:   p,
			ServiceIDs:   []string{"cleaning"},
			Date:         date,
			StartTime:    "08:00",
			EndTime:      "18:00",
			IsActive:     true,
			AvailableBit: slots.FullMask(20),
		}}))
	}

	geo := &fakeGeo{nearby: []models.NearbyProvider{
		{ProviderID: p1, DistanceKm: 0.4},
		{ProviderID: p2, DistanceKm: 1.1},
		{ProviderID: p3, DistanceKm: 2.5},
	}}
	events := &recorder{}
	refunder := &fakeRefunder{}
	svc := NewDefaultBookingService(
		&memTx{store: store}, store, store, store, geo, events, refunder, nil,
		Options{Now: func() time.Time { return clock }},
	)
	return &harness{svc: svc, store: store, geo: geo, events: events, refunder: refunder}
}

func (h *harness) create(t *testing.T, minutes int, providers ...string) *models.BookingResult {
	t.Helper()
	res, err := h.svc.CreateBookingFromSlotSearch(context.Background(), "user-1", models.CreateBookingRequest{
		ProviderIDs:     providers,
		ServiceID:       "cleaning",
		Date:            day,
		StartTime:       "10:00",
		DurationMinutes: minutes,
		ActualPrice:     100,
		Discount:        10,
		Taxes:           16,
		TransactionID:   "pi_123",
	})
	require.NoError(t, err)
	return res
}

func durationsFor(results []models.ProviderAvailability, providerID string) []int {
	for _, r := range results {
		if r.ProviderID == providerID {
			return r.AvailableDurations
		}
	}
	return nil
}

func TestSearchAcceptEndToEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	search := models.SlotSearchRequest{ServiceID: "cleaning", Lon: 36.82, Lat: -1.29, RadiusKm: 5}

	found, err := h.svc.SearchProviders(ctx, search)
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, p1, found[0].ProviderID)
	assert.Equal(t, "10:00", found[0].StartTime)
	assert.Contains(t, found[0].AvailableDurations, 60)

	res := h.create(t, 60, p1, p2, p3)
	assert.Equal(t, models.BookingInitiated, res.Booking.Status)
	assert.Equal(t, 106.0, res.Booking.FinalPrice)
	assert.Equal(t, "11:00", res.BookedSlot.EndTime)
	assert.Equal(t, slots.FullMask(20), h.store.record("rec-"+p1).AvailableBit, "creating a booking flips no bits")
	assert.Len(t, h.events.byType(models.EventBookingRequested), 3)

	booking, err := h.svc.AcceptBooking(ctx, res.Booking.ID, p1)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, booking.Status)
	assert.Equal(t, p1, booking.ProviderID)

	mask := h.store.record("rec-" + p1).AvailableBit
	assert.False(t, slots.HasConsecutiveFree(mask, 4, 1))
	assert.False(t, slots.HasConsecutiveFree(mask, 5, 1))
	assert.True(t, slots.HasConsecutiveFree(mask, 0, 4))
	assert.True(t, slots.HasConsecutiveFree(mask, 6, 14))

	slot, err := h.store.GetBookedSlot(ctx, res.BookedSlot.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p1}, slot.Providers)
	assert.Equal(t, models.SlotConfirmed, slot.Status)

	confirmed := h.events.byType(models.EventBookingConfirmed)
	require.Len(t, confirmed, 1)
	assert.Equal(t, "user-1", confirmed[0].Recipient.ID)
	unavailable := h.events.byType(models.EventBookingUnavailable)
	require.Len(t, unavailable, 2)
	assert.ElementsMatch(t, []string{p2, p3}, []string{unavailable[0].Recipient.ID, unavailable[1].Recipient.ID})

	found, err = h.svc.SearchProviders(ctx, search)
	require.NoError(t, err)
	assert.Nil(t, durationsFor(found, p1), "p1 is booked from 10:00")
	assert.Contains(t, durationsFor(found, p2), 60)
}

func TestConcurrentAcceptHasOneWinner(t *testing.T) {
	for round := 0; round < 20; round++ {
		h := newHarness(t)
		res := h.create(t, 60, p1, p2, p3)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes []string
			failures  []error
		)
		for _, p := range []string{p1, p2, p3} {
			wg.Add(1)
			go func(providerID string) {
				defer wg.Done()
				_, err := h.svc.AcceptBooking(context.Background(), res.Booking.ID, providerID)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failures = append(failures, err)
					return
				}
				successes = append(successes, providerID)
			}(p)
		}
		wg.Wait()

		require.Len(t, successes, 1)
		require.Len(t, failures, 2)
		for _, err := range failures {
			assert.True(t, errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict), "unexpected error %v", err)
		}

		slot, err := h.store.GetBookedSlot(context.Background(), res.BookedSlot.ID)
		require.NoError(t, err)
		assert.Equal(t, successes, slot.Providers)

		winnerMask := h.store.record("rec-" + successes[0]).AvailableBit
		assert.Equal(t, slots.MarkBooked(slots.FullMask(20), 4, 2), winnerMask)
		for _, p := range []string{p1, p2, p3} {
			if p != successes[0] {
				assert.Equal(t, slots.FullMask(20), h.store.record("rec-"+p).AvailableBit)
			}
		}
	}
}

func TestAcceptRejectsMalformedIDs(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.AcceptBooking(context.Background(), "not-a-uuid", p1)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = h.svc.AcceptBooking(context.Background(), uuid.NewString(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAcceptByProviderNotOffered(t *testing.T) {
	h := newHarness(t)
	res := h.create(t, 60, p1, p2)

	_, err := h.svc.AcceptBooking(context.Background(), res.Booking.ID, p3)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = h.svc.AcceptBooking(context.Background(), uuid.NewString(), p1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptConflictRollsBack(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.create(t, 60, p1)
	_, err := h.svc.AcceptBooking(ctx, first.Booking.ID, p1)
	require.NoError(t, err)

	// same time, p1 already busy from 10:00 to 11:00
	second := h.create(t, 30, p1, p2)
	_, err = h.svc.AcceptBooking(ctx, second.Booking.ID, p1)
	assert.ErrorIs(t, err, ErrConflict)

	booking, err := h.store.GetBooking(ctx, second.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingInitiated, booking.Status)
	slot, err := h.store.GetBookedSlot(ctx, second.BookedSlot.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{p1, p2}, slot.Providers)
	assert.Equal(t, models.SlotInitiated, slot.Status)

	_, err = h.svc.AcceptBooking(ctx, second.Booking.ID, p2)
	require.NoError(t, err)
}

func TestAcceptWriteConflictIsConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.create(t, 60, p1, p2)

	conflicts := utils.BookingCounter("accept", CodeConflict)
	before := testutil.ToFloat64(conflicts)

	h.svc.tx = &conflictTx{store: h.store}
	_, err := h.svc.AcceptBooking(ctx, res.Booking.ID, p1)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, database.ErrTxConflict)
	assert.Equal(t, CodeConflict, Code(err))
	assert.Equal(t, before+1, testutil.ToFloat64(conflicts))

	booking, err := h.store.GetBooking(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingInitiated, booking.Status)
	assert.Equal(t, slots.FullMask(20), h.store.record("rec-"+p1).AvailableBit)
	assert.Empty(t, h.events.byType(models.EventBookingConfirmed))
}

func TestCancelWriteConflictIsConflict(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.create(t, 60, p1)
	_, err := h.svc.AcceptBooking(ctx, res.Booking.ID, p1)
	require.NoError(t, err)
	claimed := h.store.record("rec-" + p1).AvailableBit

	conflicts := utils.BookingCounter("cancel", CodeConflict)
	before := testutil.ToFloat64(conflicts)

	h.svc.tx = &conflictTx{store: h.store}
	_, err = h.svc.CancelBooking(ctx, res.Booking.ID, models.Recipient{Role: utils.RoleUser, ID: "user-1"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, before+1, testutil.ToFloat64(conflicts))

	booking, err := h.store.GetBooking(ctx, res.Booking.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, booking.Status)
	assert.Equal(t, claimed, h.store.record("rec-"+p1).AvailableBit)
	assert.Empty(t, h.refunder.calls)
}

func TestCancelConfirmedRestoresBitsAndRefunds(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	res := h.create(t, 90, p1, p2)
	_, err := h.svc.AcceptBooking(ctx, res.Booking.ID, p2)
	require.NoError(t, err)
	require.NotEqual(t, slots.FullMask(20), h.store.record("rec-"+p2).AvailableBit)

	cancelled, err := h.svc.CancelBooking(ctx, res.Booking.ID, models.Recipient{Role: "user", ID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, models.BookingCanceled, cancelled.Status)
	assert.Equal(t, slots.FullMask(20), h.store.record("rec-"+p2).AvailableBit)

	slot, err := h.store.GetBookedSlot(ctx, res.BookedSlot.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SlotCancelled, slot.Status)

	assert.Equal(t, []string{res.Booking.ID + "/pi_123"}, h.refunder.calls)
	cancelledEvents := h.events.byType(models.EventBookingCancelled)
	require.Len(t, cancelledEvents, 1)
	assert.Equal(t, p2, cancelledEvents[0].Recipient.ID)

	_, err = h.svc.CancelBooking(ctx, res.Booking.ID, models.Recipient{Role: "user", ID: "user-1"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCancelInitiatedLeavesBitsAlone(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.refunder.err = errors.New("stripe unavailable")

	res := h.create(t, 60, p1, p2)
	cancelled, err := h.svc.CancelBooking(ctx, res.Booking.ID, models.Recipient{Role: "user", ID: "user-1"})
	require.NoError(t, err, "a failed refund does not undo the cancellation")
	assert.Equal(t, models.BookingCanceled, cancelled.Status)
	assert.Equal(t, slots.FullMask(20), h.store.record("rec-"+p1).AvailableBit)
	assert.Len(t, h.events.byType(models.EventBookingCancelled), 2)

	_, err = h.svc.AcceptBooking(ctx, res.Booking.ID, p1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelPermissions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.create(t, 60, p1, p2)

	_, err := h.svc.CancelBooking(ctx, res.Booking.ID, models.Recipient{Role: "user", ID: "someone-else"})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = h.svc.CancelBooking(ctx, res.Booking.ID, models.Recipient{Role: "provider", ID: p1})
	assert.ErrorIs(t, err, ErrForbidden, "candidates cannot cancel before accepting")

	_, err = h.svc.AcceptBooking(ctx, res.Booking.ID, p1)
	require.NoError(t, err)
	_, err = h.svc.CancelBooking(ctx, res.Booking.ID, models.Recipient{Role: "provider", ID: p1})
	require.NoError(t, err)

	toUser := h.events.byType(models.EventBookingCancelled)
	require.Len(t, toUser, 1)
	assert.Equal(t, "user-1", toUser[0].Recipient.ID)
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t)
	base := models.CreateBookingRequest{
		ProviderIDs:     []string{p1},
		ServiceID:       "cleaning",
		Date:            day,
		StartTime:       "10:00",
		DurationMinutes: 60,
		ActualPrice:     50,
	}

	cases := map[string]func(r *models.CreateBookingRequest){
		"bad provider id":   func(r *models.CreateBookingRequest) { r.ProviderIDs = []string{"p1"} },
		"no providers":      func(r *models.CreateBookingRequest) { r.ProviderIDs = nil },
		"past date":         func(r *models.CreateBookingRequest) { r.Date = "2026-10-15" },
		"malformed date":    func(r *models.CreateBookingRequest) { r.Date = "16/10/2026" },
		"off boundary":      func(r *models.CreateBookingRequest) { r.StartTime = "10:15" },
		"zero duration":     func(r *models.CreateBookingRequest) { r.DurationMinutes = 0 },
		"past midnight":     func(r *models.CreateBookingRequest) { r.StartTime = "23:30"; r.DurationMinutes = 60 },
		"discount too high": func(r *models.CreateBookingRequest) { r.Discount = 80 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			req := base
			mutate(&req)
			_, err := h.svc.CreateBookingFromSlotSearch(context.Background(), "user-1", req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	_, err := h.svc.CreateBookingFromSlotSearch(context.Background(), "", base)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateDeduplicatesProviders(t *testing.T) {
	h := newHarness(t)
	res := h.create(t, 45, p1, p1, p2)
	assert.Equal(t, []string{p1, p2}, res.BookedSlot.Providers)
	assert.Equal(t, "11:00", res.BookedSlot.EndTime, "45 minutes reserves two slots")
}

func TestSearchEdgeCases(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.SearchProviders(ctx, models.SlotSearchRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = h.svc.SearchProviders(ctx, models.SlotSearchRequest{ServiceID: "cleaning", Date: "2026-10-01"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	h.geo.nearby = nil
	found, err := h.svc.SearchProviders(ctx, models.SlotSearchRequest{ServiceID: "cleaning"})
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)

	h.geo.err = errors.New("redis down")
	_, err = h.svc.SearchProviders(ctx, models.SlotSearchRequest{ServiceID: "cleaning"})
	assert.ErrorIs(t, err, ErrInternal)
}

func TestSearchFutureDateStartsAtOpening(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	tomorrow := "2026-10-17"
	date, _ := models.ParseDate(tomorrow)
	require.NoError(t, h.store.CreateMany(ctx, []models.AvailabilityRecord{{
		ID: "rec-tomorrow", ProviderID: p1, Date: date, StartTime: "08:00", EndTime: "18:00",
		IsActive: true, AvailableBit: slots.FullMask(20),
	}}))

	found, err := h.svc.SearchProviders(ctx, models.SlotSearchRequest{ServiceID: "cleaning", Date: tomorrow})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "08:00", found[0].StartTime)
}

func TestGetBookingVisibility(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	res := h.create(t, 60, p1, p2)

	got, err := h.svc.GetBooking(ctx, res.Booking.ID, models.Recipient{Role: "user", ID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, res.Booking.ID, got.Booking.ID)

	_, err = h.svc.GetBooking(ctx, res.Booking.ID, models.Recipient{Role: "provider", ID: p2})
	require.NoError(t, err)

	_, err = h.svc.GetBooking(ctx, res.Booking.ID, models.Recipient{Role: "provider", ID: p3})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingErrorMatching(t *testing.T) {
	err := conflict("slot taken", errors.New("write conflict"))
	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, CodeConflict, Code(err))
	assert.Equal(t, CodeInternal, Code(errors.New("plain")))
	assert.Contains(t, err.Error(), "write conflict")
}
