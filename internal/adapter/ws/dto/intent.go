package dto

import (
	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	"github.com/zhans-k/ride-dispatch/pkg/validator"
)

// Intent types a connected client may send.
const (
	IntentDriverOnline       = "driver.online"
	IntentDriverOffline      = "driver.offline"
	IntentBookingAccept      = "booking.accept"
	IntentDriverLocation     = "driver.location"
	IntentBookingStatus      = "booking.status"
	IntentBookingSubscribe   = "booking.subscribe"
	IntentBookingUnsubscribe = "booking.unsubscribe"
)

type BookingIntent struct {
	BookingID uuid.UUID `json:"booking_id"`
}

func (r *BookingIntent) Validate(v *validator.Validator) {
	v.Check(r.BookingID != uuid.Nil, "booking_id", "must be provided")
}

type StatusIntent struct {
	BookingID uuid.UUID           `json:"booking_id"`
	Status    types.BookingStatus `json:"status"`
}

func (r *StatusIntent) Validate(v *validator.Validator) {
	v.Check(r.BookingID != uuid.Nil, "booking_id", "must be provided")
	v.Check(validator.PermittedValue(r.Status,
		types.StatusArrived, types.StatusStarted, types.StatusCompleted,
	), "status", "must be one of ARRIVED, STARTED, COMPLETED")
}

type LocationIntent struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (r *LocationIntent) Validate(v *validator.Validator) {
	v.Check(r.Latitude >= -90 && r.Latitude <= 90, "latitude", "must be between -90 and 90")
	v.Check(r.Longitude >= -180 && r.Longitude <= 180, "longitude", "must be between -180 and 180")
}
