package types

import "errors"

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrOfferNotFound   = errors.New("offer not found")
	ErrDriverNotFound  = errors.New("driver not found")
	ErrNotFound        = errors.New("requested item not found")

	// ErrInvalidStateTransition is returned when the booking's status,
	// read under lock, does not match the operation's precondition.
	// The double-accept race loser receives exactly this error.
	ErrInvalidStateTransition = errors.New("booking status does not allow this operation")

	ErrDuplicateOffer    = errors.New("driver already has an offer on this booking")
	ErrBookingNotPending = errors.New("booking is no longer pending")
	ErrDriverNotEligible = errors.New("driver is not approved, online, or has no registered vehicle")
	ErrUnauthorized      = errors.New("principal is not allowed to perform this operation")

	// ErrDuplicateBookingNumber marks a collision of the daily
	// booking-number sequence under concurrent creates; Create retries
	// with a recomputed number.
	ErrDuplicateBookingNumber = errors.New("booking number already taken")

	// ErrTransient marks infrastructure failures (lock-wait timeout,
	// connection loss). Never retried internally; the caller re-issues.
	ErrTransient = errors.New("transient infrastructure failure")
)
