package handler

import (
	"net/http"
	"time"

	"github.com/zhans-k/ride-dispatch/internal/adapter/http/handler/dto"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	"github.com/zhans-k/ride-dispatch/pkg/logger"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
	"github.com/zhans-k/ride-dispatch/pkg/validator"
)

type FareEstimator interface {
	Estimate(distanceKm float64, class types.VehicleClass, at time.Time) int64
}

type Fare struct {
	engine FareEstimator
	l      logger.Logger
}

func NewFare(engine FareEstimator, l logger.Logger) *Fare {
	return &Fare{
		engine: engine,
		l:      l,
	}
}

// Estimate quotes a fare for the given distance and class at the current
// moment. The quote is not persisted and carries no obligation; the
// booking's own estimate is computed again at creation time.
func (h *Fare) Estimate(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "estimate_fare")

	var req dto.FareEstimateRequest
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

	now := time.Now()
	estimate := h.engine.Estimate(req.DistanceKm, req.VehicleClass, now)

	response := envelope{
		"estimated_fare": estimate,
		"vehicle_class":  req.VehicleClass,
		"distance_km":    req.DistanceKm,
		"quoted_at":      now,
	}

	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}
