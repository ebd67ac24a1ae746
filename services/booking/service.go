package booking

import (
	"errors"
	"time"

	"servicely/database"
	availabilityRepo "servicely/database/repository/availability"
	schedulerRepo "servicely/database/repository/scheduler"
	"servicely/services/allocator"
	"servicely/services/geoindex"
	"servicely/services/notification"
	"servicely/services/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultRadiusKm = 10

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	tx        database.Transactor
	bookings  schedulerRepo.SchedulerRepository
	records   availabilityRepo.AvailabilityRepository
	finder    AvailabilityFinder
	geo       geoindex.GeoIndex
	notifier  notification.Notifier
	refunder  payment.Refunder
	durations []int
	radiusKm  float64
	now       func() time.Time
	logger    *zap.Logger
}

func NewDefaultBookingService(
	tx database.Transactor,
	bookings schedulerRepo.SchedulerRepository,
	records availabilityRepo.AvailabilityRepository,
	finder AvailabilityFinder,
	geo geoindex.GeoIndex,
	notifier notification.Notifier,
	refunder payment.Refunder,
	logger *zap.Logger,
	opts Options,
) *DefaultBookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(opts.Durations) == 0 {
		opts.Durations = allocator.DefaultDurations
	}
	if opts.DefaultRadiusKm <= 0 {
		opts.DefaultRadiusKm = defaultRadiusKm
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DefaultBookingService{
		tx:        tx,
		bookings:  bookings,
		records:   records,
		finder:    finder,
		geo:       geo,
		notifier:  notifier,
		refunder:  refunder,
		durations: opts.Durations,
		radiusKm:  opts.DefaultRadiusKm,
		now:       opts.Now,
		logger:    logger,
	}
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// classify maps repository and transaction errors onto the booking taxonomy.
func classify(err error, what string) error {
	var be *BookingError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &be):
		return err
	case errors.Is(err, database.ErrTxConflict),
		errors.Is(err, availabilityRepo.ErrSlotsUnavailable):
		return conflict(what+" was taken by a concurrent request", err)
	case errors.Is(err, schedulerRepo.ErrNotFound),
		errors.Is(err, availabilityRepo.ErrNotFound):
		return notFound(what+" not found", err)
	}
	return newError(CodeInternal, what+" failed", err)
}
