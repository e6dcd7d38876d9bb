package types

// Enum for booking lifecycle states.
// PENDING -> ACCEPTED -> ARRIVED -> STARTED -> COMPLETED,
// CANCELLED is reachable from any non-terminal state.
type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusAccepted  BookingStatus = "ACCEPTED"
	StatusArrived   BookingStatus = "ARRIVED"
	StatusStarted   BookingStatus = "STARTED"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition is possible.
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// HasDriver reports whether a booking in this state carries an assignment.
func (s BookingStatus) HasDriver() bool {
	switch s {
	case StatusAccepted, StatusArrived, StatusStarted, StatusCompleted:
		return true
	default:
		return false
	}
}

// Enum for vehicle classes
type VehicleClass string

const (
	MotoClass     VehicleClass = "MOTO"
	StandardClass VehicleClass = "STANDARD"
	PremiumClass  VehicleClass = "PREMIUM"
)

func (c VehicleClass) String() string {
	return string(c)
}

// Enum for offer states
type OfferStatus string

const (
	OfferPending  OfferStatus = "PENDING"
	OfferAccepted OfferStatus = "ACCEPTED"
	OfferRejected OfferStatus = "REJECTED"
)

// Enum for user roles
type UserRole string

const (
	RoleRider  UserRole = "RIDER"
	RoleDriver UserRole = "DRIVER"
	RoleAdmin  UserRole = "ADMIN"
)

func (r UserRole) String() string {
	return string(r)
}

// Enum for payment methods. Only the requested method is tracked; the
// gateway integration itself lives outside this system.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
)

// Enum for payment states
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// Enum for earning ledger states
type EarningStatus string

const (
	EarningRecorded EarningStatus = "RECORDED"
	EarningPaidOut  EarningStatus = "PAID_OUT"
)
