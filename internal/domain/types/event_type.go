package types

// BookingEvent names the realtime events fanned out by the gateway.
type BookingEvent string

func (e BookingEvent) String() string {
	return string(e)
}

const (
	EventBookingNew       BookingEvent = "booking.new"
	EventOfferReceived    BookingEvent = "booking.offerReceived"
	EventBookingAccepted  BookingEvent = "booking.accepted"
	EventStatusChanged    BookingEvent = "booking.statusChanged"
	EventBookingTaken     BookingEvent = "booking.taken"
	EventBookingCancelled BookingEvent = "booking.cancelled"
	EventDriverLocation   BookingEvent = "driver.locationChanged"
)
