package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/types"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label,omitempty"`
}

// Booking is one rider trip request and its lifecycle record.
// Mutated only by the dispatch service under a row lock; never deleted,
// only moved to a terminal state.
type Booking struct {
	ID            uuid.UUID `json:"id"`
	BookingNumber string    `json:"booking_number"`
	RiderID       uuid.UUID `json:"rider_id"`

	// Set if and only if Status has an assignment (ACCEPTED and later).
	DriverID  *uuid.UUID `json:"driver_id,omitempty"`
	VehicleID *uuid.UUID `json:"vehicle_id,omitempty"`

	Pickup  Location `json:"pickup"`
	Dropoff Location `json:"dropoff"`

	VehicleClass types.VehicleClass `json:"vehicle_class"`
	DistanceKm   float64            `json:"distance_km"`
	Notes        string             `json:"notes,omitempty"`

	EstimatedFare int64 `json:"estimated_fare"`

	// Populated only on completion.
	FinalFare          *int64 `json:"final_fare,omitempty"`
	PlatformCommission *int64 `json:"platform_commission,omitempty"`
	DriverEarning      *int64 `json:"driver_earning,omitempty"`

	Status types.BookingStatus `json:"status"`

	PaymentMethod types.PaymentMethod `json:"payment_method"`
	PaymentStatus types.PaymentStatus `json:"payment_status"`

	CancelledBy        *types.UserRole `json:"cancelled_by,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// BookingOffer is a driver's bid to serve a pending booking.
// At most one offer per (booking, driver); exactly one offer per booking
// ever becomes ACCEPTED.
type BookingOffer struct {
	ID        uuid.UUID         `json:"id"`
	BookingID uuid.UUID         `json:"booking_id"`
	DriverID  uuid.UUID         `json:"driver_id"`
	Status    types.OfferStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

// DriverEarning is an immutable ledger row, appended exactly once per
// completed booking in the same transaction as the terminal write.
type DriverEarning struct {
	ID         uuid.UUID           `json:"id"`
	DriverID   uuid.UUID           `json:"driver_id"`
	BookingID  uuid.UUID           `json:"booking_id"`
	Amount     int64               `json:"amount"`
	Commission int64               `json:"commission"`
	NetEarning int64               `json:"net_earning"`
	Status     types.EarningStatus `json:"status"`
	CreatedAt  time.Time           `json:"created_at"`
}
