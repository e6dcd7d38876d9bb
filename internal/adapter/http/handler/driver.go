package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/adapter/http/handler/dto"
	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/pkg/logger"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
	"github.com/zhans-k/ride-dispatch/pkg/validator"
)

type DriverService interface {
	SetOnline(ctx context.Context, driverID uuid.UUID, online bool) error
	UpdateDriverLocation(ctx context.Context, driverID uuid.UUID, loc models.Location) error
}

type Driver struct {
	service DriverService
	l       logger.Logger
}

func NewDriver(service DriverService, l logger.Logger) *Driver {
	return &Driver{
		service: service,
		l:       l,
	}
}

func (h *Driver) GoOnline(w http.ResponseWriter, r *http.Request) {
	h.setOnline(w, r, true)
}

func (h *Driver) GoOffline(w http.ResponseWriter, r *http.Request) {
	h.setOnline(w, r, false)
}

func (h *Driver) setOnline(w http.ResponseWriter, r *http.Request, online bool) {
	ctx := wrap.WithAction(r.Context(), "set_driver_availability")
	principal := models.PrincipalFromContext(ctx)

	if principal.DriverID == nil {
		errorResponse(w, http.StatusForbidden, "driver account required")
		return
	}

	if err := h.service.SetOnline(ctx, *principal.DriverID, online); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to set driver availability", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	status, message := "OFFLINE", "You are now offline"
	if online {
		status, message = "ONLINE", "You are now online and ready to accept bookings"
	}

	response := envelope{
		"status":  status,
		"message": message,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "driver availability changed", "driver_id", principal.DriverID, "online", online)
}

func (h *Driver) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_driver_location")
	principal := models.PrincipalFromContext(ctx)

	if principal.DriverID == nil {
		errorResponse(w, http.StatusForbidden, "driver account required")
		return
	}

	var req dto.DriverLocationRequest
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

	loc := models.Location{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
	}

	if err := h.service.UpdateDriverLocation(ctx, *principal.DriverID, loc); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to update driver location", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"message": "Location updated"}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}
