package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"servicely/database"
	availabilityRepo "servicely/database/repository/availability"
	schedulerRepo "servicely/database/repository/scheduler"
	"servicely/models"
	"servicely/services/slots"
)

// memStore is an in-memory stand-in for the booking and availability collections.
type memStore struct {
	mu       sync.Mutex
	bookings map[string]models.Booking
	slots    map[string]models.BookedSlot
	records  map[string]models.AvailabilityRecord
}

func newMemStore() *memStore {
	return &memStore{
		bookings: map[string]models.Booking{},
		slots:    map[string]models.BookedSlot{},
		records:  map[string]models.AvailabilityRecord{},
	}
}

type snapshot struct {
	bookings map[string]models.Booking
	slots    map[string]models.BookedSlot
	records  map[string]models.AvailabilityRecord
}

func (m *memStore) snapshot() snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := snapshot{
		bookings: make(map[string]models.Booking, len(m.bookings)),
		slots:    make(map[string]models.BookedSlot, len(m.slots)),
		records:  make(map[string]models.AvailabilityRecord, len(m.records)),
	}
	for k, v := range m.bookings {
		s.bookings[k] = v
	}
	for k, v := range m.slots {
		v.Providers = append([]string(nil), v.Providers...)
		s.slots[k] = v
	}
	for k, v := range m.records {
		s.records[k] = v
	}
	return s
}

func (m *memStore) restore(s snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings, m.slots, m.records = s.bookings, s.slots, s.records
}

// memTx serializes transactions and rolls back on error.
type memTx struct {
	mu    sync.Mutex
	store *memStore
}

func (t *memTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// conflictTx runs fn and then fails the commit the way a write conflict does.
type conflictTx struct {
	store *memStore
}

func (t *conflictTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	snap := t.store.snapshot()
	err := fn(ctx)
	t.store.restore(snap)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: write conflict on commit", database.ErrTxConflict)
}

// SchedulerRepository

func (m *memStore) CreateBookedSlot(_ context.Context, slot *models.BookedSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.slots[slot.ID]; ok {
		return schedulerRepo.ErrDuplicate
	}
	m.slots[slot.ID] = *slot
	return nil
}

func (m *memStore) CreateBooking(_ context.Context, booking *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[booking.ID]; ok {
		return schedulerRepo.ErrDuplicate
	}
	m.bookings[booking.ID] = *booking
	return nil
}

func (m *memStore) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, schedulerRepo.ErrNotFound
	}
	return &b, nil
}

func (m *memStore) GetBookedSlot(_ context.Context, id string) (*models.BookedSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[id]
	if !ok {
		return nil, schedulerRepo.ErrNotFound
	}
	s.Providers = append([]string(nil), s.Providers...)
	return &s, nil
}

func (m *memStore) FindInitiatedBooking(ctx context.Context, id string) (*models.Booking, error) {
	b, err := m.GetBooking(ctx, id)
	if err != nil || b.Status != models.BookingInitiated {
		return nil, schedulerRepo.ErrNotFound
	}
	return b, nil
}

func (m *memStore) FindInitiatedBookedSlot(ctx context.Context, slotID, providerID string) (*models.BookedSlot, error) {
	s, err := m.GetBookedSlot(ctx, slotID)
	if err != nil || s.Status != models.SlotInitiated || !s.HasProvider(providerID) {
		return nil, schedulerRepo.ErrNotFound
	}
	return s, nil
}

func (m *memStore) ConfirmBookedSlot(_ context.Context, slotID, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotID]
	if !ok || s.Status != models.SlotInitiated || !s.HasProvider(providerID) {
		return schedulerRepo.ErrNotFound
	}
	s.Providers = []string{providerID}
	s.Status = models.SlotConfirmed
	m.slots[slotID] = s
	return nil
}

func (m *memStore) CancelBookedSlot(_ context.Context, slotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.slots[slotID]
	if !ok || s.Status == models.SlotCancelled {
		return schedulerRepo.ErrNotFound
	}
	s.Status = models.SlotCancelled
	m.slots[slotID] = s
	return nil
}

func (m *memStore) UpdateBookingStatus(_ context.Context, id string, from []string, to, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return schedulerRepo.ErrNotFound
	}
	matched := false
	for _, f := range from {
		if b.Status == f {
			matched = true
		}
	}
	if !matched {
		return schedulerRepo.ErrNotFound
	}
	b.Status = to
	if providerID != "" {
		b.ProviderID = providerID
	}
	m.bookings[id] = b
	return nil
}

func (m *memStore) EnsureIndexes(context.Context) error { return nil }

// AvailabilityRepository

func (m *memStore) CreateMany(_ context.Context, recs []models.AvailabilityRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range recs {
		r.Date = models.NormalizeDate(r.Date)
		m.records[r.ID] = r
	}
	return nil
}

func (m *memStore) GetByProviderAndDate(_ context.Context, providerID string, date time.Time) (*models.AvailabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := models.NormalizeDate(date)
	for _, r := range m.records {
		if r.ProviderID == providerID && r.Date.Equal(day) {
			return &r, nil
		}
	}
	return nil, availabilityRepo.ErrNotFound
}

func (m *memStore) ListFromDate(context.Context, string, time.Time) ([]models.AvailabilityRecord, error) {
	return nil, nil
}

func (m *memStore) FindActiveByProvidersAndDate(_ context.Context, ids []string, date time.Time) ([]models.AvailabilityRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	day := models.NormalizeDate(date)
	var out []models.AvailabilityRecord
	for _, r := range m.records {
		if want[r.ProviderID] && r.IsActive && r.Date.Equal(day) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStore) FindByProvidersAndDate(ctx context.Context, ids []string, date time.Time) ([]models.AvailabilityRecord, error) {
	return m.FindActiveByProvidersAndDate(ctx, ids, date)
}

func (m *memStore) ToggleActive(context.Context, string, time.Time) (*models.AvailabilityRecord, error) {
	return nil, availabilityRepo.ErrNotFound
}

func (m *memStore) ClaimSlots(_ context.Context, recordID string, mask slots.Bitmask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[recordID]
	if !ok || mask == 0 || r.AvailableBit&mask != mask {
		return availabilityRepo.ErrSlotsUnavailable
	}
	r.AvailableBit &^= mask
	m.records[recordID] = r
	return nil
}

func (m *memStore) ReleaseSlots(_ context.Context, recordID string, mask slots.Bitmask) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[recordID]
	if !ok {
		return availabilityRepo.ErrNotFound
	}
	r.AvailableBit |= mask
	m.records[recordID] = r
	return nil
}

func (m *memStore) record(id string) models.AvailabilityRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id]
}

// fakeGeo returns a fixed provider list.
type fakeGeo struct {
	nearby []models.NearbyProvider
	err    error
}

func (g *fakeGeo) Add(context.Context, string, string, float64, float64) error { return nil }
func (g *fakeGeo) Remove(context.Context, string, string) error                { return nil }
func (g *fakeGeo) Search(context.Context, string, float64, float64, float64) ([]models.NearbyProvider, error) {
	return g.nearby, g.err
}

// recorder captures delivered events.
type recorder struct {
	mu     sync.Mutex
	events []models.Event
}

func (r *recorder) Notify(_ context.Context, e models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) byType(t string) []models.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type fakeRefunder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeRefunder) Refund(_ context.Context, bookingID, transactionID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, bookingID+"/"+transactionID)
	return "re_1", f.err
}
