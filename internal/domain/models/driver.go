package models

import (
	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/internal/domain/types"
)

// Driver holds the dispatch-relevant runtime state of a driver.
// Registration and credential verification happen outside this system.
type Driver struct {
	ID       uuid.UUID `json:"id"`
	Approved bool      `json:"approved"`
	Online   bool      `json:"online"`

	VehicleID    *uuid.UUID         `json:"vehicle_id,omitempty"`
	VehicleClass types.VehicleClass `json:"vehicle_class"`

	LastLocation *Location `json:"last_location,omitempty"`

	TotalRides    int64   `json:"total_rides"`
	TotalEarnings int64   `json:"total_earnings"`
	Rating        float64 `json:"rating"`
}

// Eligible reports whether the driver may claim or bid on work.
func (d *Driver) Eligible() bool {
	return d.Approved && d.Online && d.VehicleID != nil
}
