package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	"github.com/zhans-k/ride-dispatch/pkg/logger"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
	"github.com/zhans-k/ride-dispatch/pkg/metrics"
	"github.com/zhans-k/ride-dispatch/pkg/trm"
)

const serviceName = "dispatch"

// concurrent creates can race the daily sequence; each retry recomputes
// the number inside a fresh transaction
const createAttempts = 3

/*
Service owns the booking state machine and every business rule around
claiming, progressing and settling a trip. All mutations run inside a
transaction and re-check their precondition after taking the booking's
row lock, so competing callers are serialized by the store, not by an
application mutex.
*/
type Service struct {
	repos     repos
	fare      FareEngine
	notifier  Notifier
	publisher Publisher
	trm       trm.TxManager
	log       logger.Logger
}

type repos struct {
	booking BookingRepo
	offer   OfferRepo
	earning EarningRepo
	driver  DriverRepo
}

func New(
	bookingRepo BookingRepo,
	offerRepo OfferRepo,
	earningRepo EarningRepo,
	driverRepo DriverRepo,
	fare FareEngine,
	notifier Notifier,
	publisher Publisher,
	trm trm.TxManager,
	log logger.Logger,
) *Service {
	return &Service{
		repos: repos{
			booking: bookingRepo,
			offer:   offerRepo,
			earning: earningRepo,
			driver:  driverRepo,
		},
		fare:      fare,
		notifier:  notifier,
		publisher: publisher,
		trm:       trm,
		log:       log,
	}
}

// CreateRequest carries a rider's trip request. DistanceKm comes from the
// client's routing; the fare never does.
type CreateRequest struct {
	Pickup        models.Location
	Dropoff       models.Location
	VehicleClass  types.VehicleClass
	DistanceKm    float64
	Notes         string
	PaymentMethod types.PaymentMethod
}

// Create inserts a new pending booking with a freshly computed fare and
// broadcasts it to the available-work topic.
func (s *Service) Create(ctx context.Context, riderID uuid.UUID, req CreateRequest) (*models.Booking, error) {
	ctx = wrap.WithAction(ctx, "create_booking")

	var created *models.Booking

	for attempt := 1; ; attempt++ {
		err := s.trm.Do(ctx, func(ctx context.Context) error {
			bookingNumber, err := s.generateBookingNumber(ctx)
			if err != nil {
				return wrap.Error(ctx, fmt.Errorf("could not generate booking number: %w", err))
			}

			booking := &models.Booking{
				BookingNumber: bookingNumber,
				RiderID:       riderID,
				Pickup:        req.Pickup,
				Dropoff:       req.Dropoff,
				VehicleClass:  req.VehicleClass,
				DistanceKm:    req.DistanceKm,
				Notes:         req.Notes,
				EstimatedFare: s.fare.Estimate(req.DistanceKm, req.VehicleClass, time.Now()),
				Status:        types.StatusPending,
				PaymentMethod: req.PaymentMethod,
				PaymentStatus: types.PaymentStatusPending,
			}

			created, err = s.repos.booking.Create(ctx, booking)
			if err != nil {
				return wrap.Error(ctx, fmt.Errorf("could not create booking in repo: %w", err))
			}

			return nil
		})
		if err == nil {
			break
		}
		if errors.Is(err, types.ErrDuplicateBookingNumber) && attempt < createAttempts {
			s.log.Debug(ctx, "booking number collision, retrying", "attempt", attempt)
			continue
		}
		return nil, wrap.Error(ctx, err)
	}

	ctx = wrap.WithBookingID(ctx, created.ID.String())
	s.log.Info(ctx, "booking created", "booking_number", created.BookingNumber)

	metrics.PendingBookingsGauge.WithLabelValues(serviceName).Inc()

	s.notifier.BookingCreated(ctx, created)
	s.publishEvent(ctx, created)

	return created, nil
}

// Get returns a booking to its rider, its assigned driver, or an admin.
func (s *Service) Get(ctx context.Context, principal *models.Principal, bookingID uuid.UUID) (*models.Booking, error) {
	ctx = wrap.WithAction(wrap.WithBookingID(ctx, bookingID.String()), "get_booking")

	booking, err := s.repos.booking.Get(ctx, bookingID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if !canReadBooking(principal, booking) {
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	return booking, nil
}

// ListAvailable returns pending bookings matching the driver's vehicle class.
func (s *Service) ListAvailable(ctx context.Context, driverID uuid.UUID) ([]*models.Booking, error) {
	ctx = wrap.WithAction(wrap.WithDriverID(ctx, driverID.String()), "list_available_bookings")

	driver, err := s.repos.driver.Get(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	return s.repos.booking.ListAvailable(ctx, driver.VehicleClass)
}

func canReadBooking(principal *models.Principal, booking *models.Booking) bool {
	if principal == nil {
		return false
	}
	if principal.IsAdmin() {
		return true
	}
	if booking.RiderID == principal.UserID {
		return true
	}
	if booking.DriverID != nil && principal.DriverID != nil && *booking.DriverID == *principal.DriverID {
		return true
	}
	return false
}

// publishEvent sends the lifecycle message to the broker. A publish
// failure is logged and swallowed: the committed row is the source of
// truth and downstream consumers reconcile from it.
func (s *Service) publishEvent(ctx context.Context, booking *models.Booking) {
	if s.publisher == nil {
		return
	}

	msg := models.BookingEventMessage{
		BookingID:     booking.ID,
		BookingNumber: booking.BookingNumber,
		Status:        booking.Status,
		RiderID:       booking.RiderID,
		DriverID:      booking.DriverID,
		FinalFare:     booking.FinalFare,
		Timestamp:     time.Now(),
		CorrelationID: wrap.GetRequestID(ctx),
	}

	if err := s.publisher.PublishBookingEvent(ctx, msg); err != nil {
		s.log.Warn(ctx, "failed to publish booking event", "status", booking.Status, "error", err.Error())
	}
}

func (s *Service) generateBookingNumber(ctx context.Context) (string, error) {
	datePart := time.Now().Format("20060102")

	count, err := s.repos.booking.CountByDate(ctx, time.Now())
	if err != nil {
		return "", wrap.Error(ctx, err)
	}

	nextSequence := count + 1
	return fmt.Sprintf("BOOK_%s_%03d", datePart, nextSequence), nil
}
