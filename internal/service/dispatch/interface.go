package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
)

type BookingRepo interface {
	Create(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	Get(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	GetForUpdate(ctx context.Context, bookingID uuid.UUID) (*models.Booking, error)
	ListAvailable(ctx context.Context, class types.VehicleClass) ([]*models.Booking, error)
	Update(ctx context.Context, booking *models.Booking) error
	CountByDate(ctx context.Context, date time.Time) (int, error)
	ActiveByDriver(ctx context.Context, driverID uuid.UUID) (*models.Booking, error)
}

type OfferRepo interface {
	Create(ctx context.Context, bookingID, driverID uuid.UUID) (*models.BookingOffer, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]*models.BookingOffer, error)
	GetByDriver(ctx context.Context, bookingID, driverID uuid.UUID) (*models.BookingOffer, error)
	Resolve(ctx context.Context, bookingID, winningDriverID uuid.UUID) error
}

type EarningRepo interface {
	Append(ctx context.Context, earning *models.DriverEarning) error
}

type DriverRepo interface {
	Get(ctx context.Context, driverID uuid.UUID) (*models.Driver, error)
	SetOnline(ctx context.Context, driverID uuid.UUID, online bool) (changed bool, err error)
	UpdateLocation(ctx context.Context, driverID uuid.UUID, loc models.Location) error
	ApplyCompletionTotals(ctx context.Context, driverID uuid.UUID, netEarning int64) error
}

// FareEngine computes the authoritative fare and the completion split.
type FareEngine interface {
	Estimate(distanceKm float64, class types.VehicleClass, at time.Time) int64
	Commission(amount int64) (commission, net int64)
}

// Notifier fans realtime events out to the parties of a booking.
// Every call is fire-and-forget: delivery failures never fail a
// transition that already committed.
type Notifier interface {
	BookingCreated(ctx context.Context, booking *models.Booking)
	OfferReceived(ctx context.Context, booking *models.Booking, offer *models.BookingOffer)
	BookingAssigned(ctx context.Context, booking *models.Booking)
	StatusChanged(ctx context.Context, booking *models.Booking)
	BookingCancelled(ctx context.Context, booking *models.Booking, wasPending bool)
	DriverLocation(ctx context.Context, booking *models.Booking, driverID uuid.UUID, loc models.Location)
}

// Publisher emits booking lifecycle messages for downstream consumers.
type Publisher interface {
	PublishBookingEvent(ctx context.Context, msg models.BookingEventMessage) error
}
