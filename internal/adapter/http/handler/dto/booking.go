package dto

import (
	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	"github.com/zhans-k/ride-dispatch/pkg/validator"
)

type LocationReq struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Label     string   `json:"label"`
}

func (l *LocationReq) Validate(v *validator.Validator, field string) {
	v.Check(l.Latitude != nil, field+".latitude", "must be provided")
	v.Check(l.Longitude != nil, field+".longitude", "must be provided")
	if l.Latitude != nil {
		v.Check(*l.Latitude >= -90 && *l.Latitude <= 90, field+".latitude", "must be between -90 and 90")
	}
	if l.Longitude != nil {
		v.Check(*l.Longitude >= -180 && *l.Longitude <= 180, field+".longitude", "must be between -180 and 180")
	}
}

func (l *LocationReq) ToModel() models.Location {
	loc := models.Location{Label: l.Label}
	if l.Latitude != nil {
		loc.Latitude = *l.Latitude
	}
	if l.Longitude != nil {
		loc.Longitude = *l.Longitude
	}
	return loc
}

type CreateBookingRequest struct {
	Pickup        LocationReq         `json:"pickup"`
	Dropoff       LocationReq         `json:"dropoff"`
	VehicleClass  types.VehicleClass  `json:"vehicle_class"`
	DistanceKm    float64             `json:"distance_km"`
	Notes         string              `json:"notes"`
	PaymentMethod types.PaymentMethod `json:"payment_method"`
}

func (r *CreateBookingRequest) Validate(v *validator.Validator) {
	r.Pickup.Validate(v, "pickup")
	r.Dropoff.Validate(v, "dropoff")

	v.Check(validator.PermittedValue(r.VehicleClass,
		types.MotoClass, types.StandardClass, types.PremiumClass,
	), "vehicle_class", "must be one of MOTO, STANDARD, PREMIUM")

	v.Check(r.DistanceKm > 0, "distance_km", "must be greater than zero")
	v.Check(r.DistanceKm <= 500, "distance_km", "must not exceed 500")
	v.Check(len(r.Notes) <= 500, "notes", "must not be longer than 500 characters")

	v.Check(validator.PermittedValue(r.PaymentMethod,
		types.PaymentCash, types.PaymentCard,
	), "payment_method", "must be one of CASH, CARD")
}

type UpdateStatusRequest struct {
	Status types.BookingStatus `json:"status"`
}

func (r *UpdateStatusRequest) Validate(v *validator.Validator) {
	v.Check(validator.PermittedValue(r.Status,
		types.StatusArrived, types.StatusStarted, types.StatusCompleted,
	), "status", "must be one of ARRIVED, STARTED, COMPLETED")
}

type CancelBookingRequest struct {
	Reason string `json:"reason"`
}

func (r *CancelBookingRequest) Validate(v *validator.Validator) {
	v.Check(len(r.Reason) <= 500, "reason", "must not be longer than 500 characters")
}

type FareEstimateRequest struct {
	DistanceKm   float64            `json:"distance_km"`
	VehicleClass types.VehicleClass `json:"vehicle_class"`
}

func (r *FareEstimateRequest) Validate(v *validator.Validator) {
	v.Check(r.DistanceKm > 0, "distance_km", "must be greater than zero")
	v.Check(r.DistanceKm <= 500, "distance_km", "must not exceed 500")
	v.Check(validator.PermittedValue(r.VehicleClass,
		types.MotoClass, types.StandardClass, types.PremiumClass,
	), "vehicle_class", "must be one of MOTO, STANDARD, PREMIUM")
}

type DriverLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r *DriverLocationRequest) Validate(v *validator.Validator) {
	v.Check(r.Latitude != nil, "latitude", "must be provided")
	v.Check(r.Longitude != nil, "longitude", "must be provided")
	if r.Latitude != nil {
		v.Check(*r.Latitude >= -90 && *r.Latitude <= 90, "latitude", "must be between -90 and 90")
	}
	if r.Longitude != nil {
		v.Check(*r.Longitude >= -180 && *r.Longitude <= 180, "longitude", "must be between -180 and 180")
	}
}
