package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
	"github.com/zhans-k/ride-dispatch/pkg/metrics"
)

// SetOnline marks the driver as accepting work. Online status gates
// membership of the available-work topic; the gateway calls this on the
// driver's online/offline intents as well. The gauge moves only when the
// stored flag actually flips, so repeated intents cannot drift it.
func (s *Service) SetOnline(ctx context.Context, driverID uuid.UUID, online bool) error {
	action := "driver_online"
	if !online {
		action = "driver_offline"
	}
	ctx = wrap.WithAction(wrap.WithDriverID(ctx, driverID.String()), action)

	changed, err := s.repos.driver.SetOnline(ctx, driverID, online)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("could not set driver online flag: %w", err))
	}

	if changed {
		gauge := metrics.DriversOnlineGauge.WithLabelValues(serviceName)
		if online {
			gauge.Inc()
		} else {
			gauge.Dec()
		}
	}

	s.log.Info(ctx, "driver availability changed", "online", online)
	return nil
}

// GetDriver returns the driver's dispatch state.
func (s *Service) GetDriver(ctx context.Context, driverID uuid.UUID) (*models.Driver, error) {
	return s.repos.driver.Get(ctx, driverID)
}

// UpdateDriverLocation persists the driver's last known position and, if
// the driver is serving an active booking, forwards the position to that
// booking's rider. Positions of idle drivers are stored but not fanned
// out anywhere.
func (s *Service) UpdateDriverLocation(ctx context.Context, driverID uuid.UUID, loc models.Location) error {
	ctx = wrap.WithAction(wrap.WithDriverID(ctx, driverID.String()), "driver_location")

	if err := s.repos.driver.UpdateLocation(ctx, driverID, loc); err != nil {
		return wrap.Error(ctx, fmt.Errorf("could not persist driver location: %w", err))
	}

	booking, err := s.repos.booking.ActiveByDriver(ctx, driverID)
	if err != nil {
		if errors.Is(err, types.ErrBookingNotFound) {
			return nil
		}
		return wrap.Error(ctx, err)
	}

	s.notifier.DriverLocation(ctx, booking, driverID, loc)
	return nil
}
