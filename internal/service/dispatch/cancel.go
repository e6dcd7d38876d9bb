package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
	"github.com/zhans-k/ride-dispatch/pkg/metrics"
)

// Cancel moves a non-terminal booking to CANCELLED and records who
// cancelled it and why. The rider, the assigned driver and admins may
// cancel; anybody else gets ErrUnauthorized.
func (s *Service) Cancel(ctx context.Context, principal *models.Principal, bookingID uuid.UUID, reason string) (*models.Booking, error) {
	ctx = wrap.WithAction(wrap.WithBookingID(ctx, bookingID.String()), "cancel_booking")

	var (
		booking    *models.Booking
		wasPending bool
	)

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		var err error

		booking, err = s.repos.booking.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}

		if !canCancelBooking(principal, booking) {
			return types.ErrUnauthorized
		}
		if booking.Status.IsTerminal() {
			return types.ErrInvalidStateTransition
		}

		wasPending = booking.Status == types.StatusPending

		now := time.Now()
		role := principal.Role
		booking.Status = types.StatusCancelled
		booking.CancelledBy = &role
		booking.CancelledAt = &now
		if reason != "" {
			booking.CancellationReason = &reason
		}

		if err := s.repos.booking.Update(ctx, booking); err != nil {
			return fmt.Errorf("could not cancel booking: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "booking cancelled",
		"booking_number", booking.BookingNumber,
		"cancelled_by", principal.Role.String(),
	)

	if wasPending {
		metrics.PendingBookingsGauge.WithLabelValues(serviceName).Dec()
	}
	s.notifier.BookingCancelled(ctx, booking, wasPending)
	s.publishEvent(ctx, booking)

	return booking, nil
}

func canCancelBooking(principal *models.Principal, booking *models.Booking) bool {
	if principal == nil {
		return false
	}
	if principal.IsAdmin() {
		return true
	}
	if principal.Role == types.RoleRider && booking.RiderID == principal.UserID {
		return true
	}
	if principal.Role == types.RoleDriver &&
		booking.DriverID != nil && principal.DriverID != nil &&
		*booking.DriverID == *principal.DriverID {
		return true
	}
	return false
}
