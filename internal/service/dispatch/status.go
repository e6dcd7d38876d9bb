package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
)

// validTransition reports whether a driver-initiated status update is
// allowed. ARRIVED is optional: a trip may start straight from ACCEPTED.
func validTransition(from, to types.BookingStatus) bool {
	switch to {
	case types.StatusArrived:
		return from == types.StatusAccepted
	case types.StatusStarted:
		return from == types.StatusAccepted || from == types.StatusArrived
	case types.StatusCompleted:
		return from == types.StatusStarted
	default:
		return false
	}
}

// UpdateStatus moves the booking forward along
// ACCEPTED -> ARRIVED -> STARTED -> COMPLETED. Only the assigned driver
// may call it. Completion settles the fare, appends the earning ledger
// row and bumps the driver's totals, all inside the same transaction as
// the terminal write.
func (s *Service) UpdateStatus(ctx context.Context, driverID, bookingID uuid.UUID, target types.BookingStatus) (*models.Booking, error) {
	ctx = wrap.WithAction(ctx, "update_booking_status")
	ctx = wrap.WithBookingID(ctx, bookingID.String())
	ctx = wrap.WithDriverID(ctx, driverID.String())

	var booking *models.Booking

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error

		booking, err = s.repos.booking.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		if booking.DriverID == nil || *booking.DriverID != driverID {
			return types.ErrUnauthorized
		}

		if !validTransition(booking.Status, target) {
			return types.ErrInvalidStateTransition
		}

		now := time.Now()
		booking.Status = target

		switch target {
		case types.StatusStarted:
			booking.StartedAt = &now
		case types.StatusCompleted:
			booking.CompletedAt = &now
			if err := s.settleCompletion(ctx, booking); err != nil {
				return err
			}
		}

		if err := s.repos.booking.Update(ctx, booking); err != nil {
			return fmt.Errorf("could not update booking status: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "booking status changed", "status", booking.Status.String())

	s.notifier.StatusChanged(ctx, booking)
	s.publishEvent(ctx, booking)

	return booking, nil
}

// settleCompletion freezes the estimated fare as final, splits it into
// commission and net earning, appends the immutable ledger row and adds
// the trip to the driver's lifetime totals. The UNIQUE constraint on the
// ledger's booking column makes a replayed completion fail the whole
// transaction instead of paying twice.
func (s *Service) settleCompletion(ctx context.Context, booking *models.Booking) error {
	finalFare := booking.EstimatedFare
	commission, net := s.fare.Commission(finalFare)

	booking.FinalFare = &finalFare
	booking.PlatformCommission = &commission
	booking.DriverEarning = &net
	booking.PaymentStatus = types.PaymentStatusPaid

	earning := &models.DriverEarning{
		DriverID:   *booking.DriverID,
		BookingID:  booking.ID,
		Amount:     finalFare,
		Commission: commission,
		NetEarning: net,
		Status:     types.EarningRecorded,
	}

	if err := s.repos.earning.Append(ctx, earning); err != nil {
		return fmt.Errorf("could not append earning: %w", err)
	}

	if err := s.repos.driver.ApplyCompletionTotals(ctx, *booking.DriverID, net); err != nil {
		return fmt.Errorf("could not apply driver totals: %w", err)
	}

	return nil
}
