package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
	"github.com/zhans-k/ride-dispatch/pkg/metrics"
)

// DirectAccept claims a pending booking for the driver without the offer
// round-trip. When several drivers race for the same booking, the row
// lock serializes them and every loser gets ErrInvalidStateTransition.
func (s *Service) DirectAccept(ctx context.Context, driverID, bookingID uuid.UUID) (*models.Booking, error) {
	ctx = wrap.WithAction(ctx, "direct_accept")
	ctx = wrap.WithBookingID(ctx, bookingID.String())
	ctx = wrap.WithDriverID(ctx, driverID.String())

	booking, err := s.assignDriver(ctx, bookingID, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "booking claimed directly", "booking_number", booking.BookingNumber)

	metrics.PendingBookingsGauge.WithLabelValues(serviceName).Dec()
	s.notifier.BookingAssigned(ctx, booking)
	s.publishEvent(ctx, booking)

	return booking, nil
}

// MakeOffer registers the driver's bid on a pending booking and notifies
// the rider. The booking itself is not modified.
func (s *Service) MakeOffer(ctx context.Context, driverID, bookingID uuid.UUID) (*models.BookingOffer, error) {
	ctx = wrap.WithAction(ctx, "make_offer")
	ctx = wrap.WithBookingID(ctx, bookingID.String())
	ctx = wrap.WithDriverID(ctx, driverID.String())

	var (
		offer   *models.BookingOffer
		booking *models.Booking
	)

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error

		// The row lock keeps a concurrent claim from landing between
		// the status check and the offer insert.
		booking, err = s.repos.booking.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking.Status != types.StatusPending {
			return types.ErrBookingNotPending
		}

		if _, err := s.checkDriverEligible(ctx, driverID, booking.VehicleClass); err != nil {
			return err
		}

		offer, err = s.repos.offer.Create(ctx, bookingID, driverID)
		if err != nil {
			return fmt.Errorf("could not create offer: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "offer placed", "offer_id", offer.ID.String())

	s.notifier.OfferReceived(ctx, booking, offer)

	return offer, nil
}

// ListOffers returns every offer on the booking. Only the rider who owns
// the booking or an admin may see them.
func (s *Service) ListOffers(ctx context.Context, principal *models.Principal, bookingID uuid.UUID) ([]*models.BookingOffer, error) {
	ctx = wrap.WithAction(wrap.WithBookingID(ctx, bookingID.String()), "list_offers")

	booking, err := s.repos.booking.Get(ctx, bookingID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if principal == nil || (!principal.IsAdmin() && booking.RiderID != principal.UserID) {
		return nil, wrap.Error(ctx, types.ErrUnauthorized)
	}

	return s.repos.offer.ListByBooking(ctx, bookingID)
}

// SelectOffer lets the rider pick a driver among the pending offers. The
// chosen offer becomes ACCEPTED, every other pending offer is REJECTED,
// and the booking is assigned in the same transaction.
func (s *Service) SelectOffer(ctx context.Context, riderID, bookingID, driverID uuid.UUID) (*models.Booking, error) {
	ctx = wrap.WithAction(ctx, "select_offer")
	ctx = wrap.WithBookingID(ctx, bookingID.String())
	ctx = wrap.WithDriverID(ctx, driverID.String())

	var booking *models.Booking

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		current, err := s.repos.booking.Get(ctx, bookingID)
		if err != nil {
			return err
		}
		if current.RiderID != riderID {
			return types.ErrUnauthorized
		}

		if _, err := s.repos.offer.GetByDriver(ctx, bookingID, driverID); err != nil {
			return err
		}

		booking, err = s.assignDriver(ctx, bookingID, driverID)
		return err
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "offer selected", "booking_number", booking.BookingNumber)

	metrics.PendingBookingsGauge.WithLabelValues(serviceName).Dec()
	s.notifier.BookingAssigned(ctx, booking)
	s.publishEvent(ctx, booking)

	return booking, nil
}

// assignDriver is the single claiming primitive shared by DirectAccept
// and SelectOffer. It locks the booking row, re-checks that it is still
// PENDING, verifies driver eligibility and moves the booking to ACCEPTED.
// Safe to call inside an outer transaction; the manager reuses it.
func (s *Service) assignDriver(ctx context.Context, bookingID, driverID uuid.UUID) (*models.Booking, error) {
	var booking *models.Booking

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error

		booking, err = s.repos.booking.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		// Re-checked under lock. The first claimant flips the status,
		// so every later claimant fails here.
		if booking.Status != types.StatusPending {
			return types.ErrInvalidStateTransition
		}

		driver, err := s.checkDriverEligible(ctx, driverID, booking.VehicleClass)
		if err != nil {
			return err
		}

		now := time.Now()
		booking.DriverID = &driverID
		booking.VehicleID = driver.VehicleID
		booking.Status = types.StatusAccepted
		booking.AcceptedAt = &now

		if err := s.repos.booking.Update(ctx, booking); err != nil {
			return fmt.Errorf("could not assign booking: %w", err)
		}

		// Marks the winner's offer ACCEPTED if one exists and rejects
		// the remaining pending offers. A direct claim without an offer
		// row still rejects the bids of everyone else.
		if err := s.repos.offer.Resolve(ctx, bookingID, driverID); err != nil {
			return fmt.Errorf("could not resolve offers: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// checkDriverEligible rejects drivers that are offline, unapproved,
// missing a vehicle, on the wrong vehicle class or already serving an
// active booking.
func (s *Service) checkDriverEligible(ctx context.Context, driverID uuid.UUID, class types.VehicleClass) (*models.Driver, error) {
	driver, err := s.repos.driver.Get(ctx, driverID)
	if err != nil {
		return nil, err
	}

	if !driver.Eligible() {
		return nil, types.ErrDriverNotEligible
	}
	if driver.VehicleClass != class {
		return nil, types.ErrDriverNotEligible
	}

	_, err = s.repos.booking.ActiveByDriver(ctx, driverID)
	switch {
	case err == nil:
		return nil, types.ErrDriverNotEligible
	case errors.Is(err, types.ErrBookingNotFound):
		return driver, nil
	default:
		return nil, err
	}
}
