package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/adapter/http/handler/dto"
	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	"github.com/zhans-k/ride-dispatch/internal/service/dispatch"
	"github.com/zhans-k/ride-dispatch/pkg/logger"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
	"github.com/zhans-k/ride-dispatch/pkg/metrics"
	"github.com/zhans-k/ride-dispatch/pkg/validator"
)

type BookingService interface {
	Create(ctx context.Context, riderID uuid.UUID, req dispatch.CreateRequest) (*models.Booking, error)
	Get(ctx context.Context, principal *models.Principal, bookingID uuid.UUID) (*models.Booking, error)
	ListAvailable(ctx context.Context, driverID uuid.UUID) ([]*models.Booking, error)
	DirectAccept(ctx context.Context, driverID, bookingID uuid.UUID) (*models.Booking, error)
	MakeOffer(ctx context.Context, driverID, bookingID uuid.UUID) (*models.BookingOffer, error)
	ListOffers(ctx context.Context, principal *models.Principal, bookingID uuid.UUID) ([]*models.BookingOffer, error)
	SelectOffer(ctx context.Context, riderID, bookingID, driverID uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, driverID, bookingID uuid.UUID, target types.BookingStatus) (*models.Booking, error)
	Cancel(ctx context.Context, principal *models.Principal, bookingID uuid.UUID, reason string) (*models.Booking, error)
}

type Booking struct {
	service BookingService
	l       logger.Logger
}

func NewBooking(service BookingService, l logger.Logger) *Booking {
	return &Booking{
		service: service,
		l:       l,
	}
}

func (h *Booking) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_booking")
	principal := models.PrincipalFromContext(ctx)

	var req dto.CreateBookingRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	booking, err := h.service.Create(ctx, principal.UserID, dispatch.CreateRequest{
		Pickup:        req.Pickup.ToModel(),
		Dropoff:       req.Dropoff.ToModel(),
		VehicleClass:  req.VehicleClass,
		DistanceKm:    req.DistanceKm,
		Notes:         req.Notes,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create booking", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	metrics.BookingsTotal.WithLabelValues("dispatch", booking.Status.String()).Inc()

	response := envelope{
		"booking": booking,
		"message": "Booking created, waiting for a driver",
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "booking created", "booking_id", booking.ID, "booking_number", booking.BookingNumber)
}

func (h *Booking) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_booking")
	principal := models.PrincipalFromContext(ctx)

	bookingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.l.Warn(ctx, "invalid booking uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid booking uuid format")
		return
	}

	booking, err := h.service.Get(ctx, principal, bookingID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get booking", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"booking": booking}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

func (h *Booking) ListAvailable(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_available_bookings")
	principal := models.PrincipalFromContext(ctx)

	if principal.DriverID == nil {
		errorResponse(w, http.StatusForbidden, "driver account required")
		return
	}

	bookings, err := h.service.ListAvailable(ctx, *principal.DriverID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list available bookings", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"bookings": bookings,
		"count":    len(bookings),
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

func (h *Booking) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "accept_booking")
	principal := models.PrincipalFromContext(ctx)

	bookingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.l.Warn(ctx, "invalid booking uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid booking uuid format")
		return
	}

	if principal.DriverID == nil {
		errorResponse(w, http.StatusForbidden, "driver account required")
		return
	}

	booking, err := h.service.DirectAccept(ctx, *principal.DriverID, bookingID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to accept booking", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	metrics.BookingsTotal.WithLabelValues("dispatch", booking.Status.String()).Inc()

	response := envelope{
		"booking": booking,
		"message": "Booking accepted",
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "booking accepted", "booking_id", booking.ID)
}

func (h *Booking) MakeOffer(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "make_offer")
	principal := models.PrincipalFromContext(ctx)

	bookingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.l.Warn(ctx, "invalid booking uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid booking uuid format")
		return
	}

	if principal.DriverID == nil {
		errorResponse(w, http.StatusForbidden, "driver account required")
		return
	}

	offer, err := h.service.MakeOffer(ctx, *principal.DriverID, bookingID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to make offer", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"offer":   offer,
		"message": "Offer placed, waiting for the rider",
	}

	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "offer placed", "booking_id", bookingID, "offer_id", offer.ID)
}

func (h *Booking) ListOffers(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_offers")
	principal := models.PrincipalFromContext(ctx)

	bookingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.l.Warn(ctx, "invalid booking uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid booking uuid format")
		return
	}

	offers, err := h.service.ListOffers(ctx, principal, bookingID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list offers", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"offers": offers,
		"count":  len(offers),
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

func (h *Booking) SelectOffer(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "select_offer")
	principal := models.PrincipalFromContext(ctx)

	bookingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.l.Warn(ctx, "invalid booking uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid booking uuid format")
		return
	}

	driverID, err := uuid.Parse(r.PathValue("driver_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid driver uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid driver uuid format")
		return
	}

	booking, err := h.service.SelectOffer(ctx, principal.UserID, bookingID, driverID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to select offer", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	metrics.BookingsTotal.WithLabelValues("dispatch", booking.Status.String()).Inc()

	response := envelope{
		"booking": booking,
		"message": "Driver assigned",
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "offer selected", "booking_id", booking.ID, "driver_id", driverID)
}

func (h *Booking) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_booking_status")
	principal := models.PrincipalFromContext(ctx)

	bookingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.l.Warn(ctx, "invalid booking uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid booking uuid format")
		return
	}

	if principal.DriverID == nil {
		errorResponse(w, http.StatusForbidden, "driver account required")
		return
	}

	var req dto.UpdateStatusRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	booking, err := h.service.UpdateStatus(ctx, *principal.DriverID, bookingID, req.Status)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update booking status", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	metrics.BookingsTotal.WithLabelValues("dispatch", booking.Status.String()).Inc()

	response := envelope{
		"booking": booking,
		"message": "Status updated",
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "booking status updated", "booking_id", booking.ID, "status", booking.Status)
}

func (h *Booking) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "cancel_booking")
	principal := models.PrincipalFromContext(ctx)

	bookingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.l.Warn(ctx, "invalid booking uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid booking uuid format")
		return
	}

	var req dto.CancelBookingRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	booking, err := h.service.Cancel(ctx, principal, bookingID, req.Reason)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to cancel booking", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	metrics.BookingsTotal.WithLabelValues("dispatch", booking.Status.String()).Inc()

	response := envelope{
		"booking": booking,
		"message": "Booking cancelled",
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "booking cancelled", "booking_id", booking.ID)
}
