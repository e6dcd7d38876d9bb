package wshandler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	ws "github.com/zhans-k/ride-dispatch/pkg/wsHub"
)

// TopicDriversAvailable carries new and withdrawn work to every driver
// that is approved and online.
const TopicDriversAvailable = "drivers:available"

func UserTopic(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s", userID)
}

func BookingTopic(bookingID uuid.UUID) string {
	return fmt.Sprintf("booking:%s", bookingID)
}

// Notifier fans booking lifecycle events out over the hub. Delivery is
// at most once; a recipient that is offline simply misses the event and
// re-fetches state over HTTP on reconnect.
type Notifier struct {
	hub *ws.Hub
}

func NewNotifier(hub *ws.Hub) *Notifier {
	return &Notifier{hub: hub}
}

func event(eventType types.BookingEvent, data any) models.EventMessage {
	return models.EventMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
	}
}

// BookingCreated announces new work to every available driver.
func (n *Notifier) BookingCreated(_ context.Context, booking *models.Booking) {
	n.hub.Publish(TopicDriversAvailable, event(types.EventBookingNew, booking))
}

// OfferReceived tells the rider a driver has bid on their booking.
func (n *Notifier) OfferReceived(_ context.Context, booking *models.Booking, offer *models.BookingOffer) {
	n.hub.Publish(UserTopic(booking.RiderID), event(types.EventOfferReceived, offer))
}

// BookingAssigned notifies both parties, withdraws the listing from the
// available-work topic and updates booking subscribers.
func (n *Notifier) BookingAssigned(_ context.Context, booking *models.Booking) {
	accepted := event(types.EventBookingAccepted, booking)

	n.hub.Publish(UserTopic(booking.RiderID), accepted)
	if booking.DriverID != nil {
		n.hub.Publish(UserTopic(*booking.DriverID), accepted)
	}
	n.hub.Publish(BookingTopic(booking.ID), accepted)

	n.hub.Publish(TopicDriversAvailable, event(types.EventBookingTaken, map[string]any{
		"booking_id": booking.ID,
	}))
}

// StatusChanged updates both parties and booking subscribers.
func (n *Notifier) StatusChanged(_ context.Context, booking *models.Booking) {
	changed := event(types.EventStatusChanged, booking)

	n.hub.Publish(UserTopic(booking.RiderID), changed)
	if booking.DriverID != nil {
		n.hub.Publish(UserTopic(*booking.DriverID), changed)
	}
	n.hub.Publish(BookingTopic(booking.ID), changed)
}

// BookingCancelled notifies both parties; a booking cancelled while
// still unclaimed is also withdrawn from the available-work topic.
func (n *Notifier) BookingCancelled(_ context.Context, booking *models.Booking, wasPending bool) {
	cancelled := event(types.EventBookingCancelled, booking)

	n.hub.Publish(UserTopic(booking.RiderID), cancelled)
	if booking.DriverID != nil {
		n.hub.Publish(UserTopic(*booking.DriverID), cancelled)
	}
	n.hub.Publish(BookingTopic(booking.ID), cancelled)

	if wasPending {
		n.hub.Publish(TopicDriversAvailable, event(types.EventBookingTaken, map[string]any{
			"booking_id": booking.ID,
		}))
	}
}

// DriverLocation forwards the driver's position to the rider of the
// driver's active booking only. Idle driver positions never fan out.
func (n *Notifier) DriverLocation(_ context.Context, booking *models.Booking, driverID uuid.UUID, loc models.Location) {
	n.hub.Publish(UserTopic(booking.RiderID), models.DriverLocationEvent{
		Type:      types.EventDriverLocation,
		BookingID: booking.ID,
		DriverID:  driverID,
		Location:  loc,
		Timestamp: time.Now(),
	})
}
