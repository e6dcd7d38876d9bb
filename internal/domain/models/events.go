package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/types"
)

/* ======================= websocket ======================= */

// EventMessage is the envelope for every outbound realtime event.
// Data carries the affected Booking or BookingOffer.
type EventMessage struct {
	Type      types.BookingEvent `json:"type"`
	Data      any                `json:"data"`
	Timestamp time.Time          `json:"timestamp"`
}

// DriverLocationEvent is forwarded only to the rider of the driver's
// currently active booking.
type DriverLocationEvent struct {
	Type      types.BookingEvent `json:"type"`
	BookingID uuid.UUID          `json:"booking_id"`
	DriverID  uuid.UUID          `json:"driver_id"`
	Location  Location           `json:"location"`
	Timestamp time.Time          `json:"timestamp"`
}

/* ======================= rabbitmq ======================= */

// BookingEventMessage is published on the booking_topic exchange for
// downstream consumers. The database commit, not the publish, is the
// source of truth.
type BookingEventMessage struct {
	BookingID     uuid.UUID           `json:"booking_id"`
	BookingNumber string              `json:"booking_number"`
	Status        types.BookingStatus `json:"status"`
	RiderID       uuid.UUID           `json:"rider_id"`
	DriverID      *uuid.UUID          `json:"driver_id,omitempty"`
	FinalFare     *int64              `json:"final_fare,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
	CorrelationID string              `json:"correlation_id"`
}
