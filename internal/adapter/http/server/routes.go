package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zhans-k/ride-dispatch/internal/domain/types"
)

// setupRoutes - setups http routes
func (a *API) setupRoutes() {
	// System
	a.mux.HandleFunc("GET /health", a.routes.health.HealthCheck)
	a.mux.Handle("GET /metrics", promhttp.Handler())

	// Bookings
	a.mux.Handle("POST /bookings", a.m.RequireRoles(a.routes.booking.Create, types.RoleRider))
	a.mux.Handle("GET /bookings/available", a.m.RequireRoles(a.routes.booking.ListAvailable, types.RoleDriver))
	a.mux.Handle("GET /bookings/{id}", a.m.RequireRoles(a.routes.booking.Get))
	a.mux.Handle("POST /bookings/{id}/accept", a.m.RequireRoles(a.routes.booking.Accept, types.RoleDriver))
	a.mux.Handle("POST /bookings/{id}/offers", a.m.RequireRoles(a.routes.booking.MakeOffer, types.RoleDriver))
	a.mux.Handle("GET /bookings/{id}/offers", a.m.RequireRoles(a.routes.booking.ListOffers, types.RoleRider, types.RoleAdmin))
	a.mux.Handle("POST /bookings/{id}/offers/{driver_id}/select", a.m.RequireRoles(a.routes.booking.SelectOffer, types.RoleRider))
	a.mux.Handle("PUT /bookings/{id}/status", a.m.RequireRoles(a.routes.booking.UpdateStatus, types.RoleDriver))
	a.mux.Handle("PUT /bookings/{id}/cancel", a.m.RequireRoles(a.routes.booking.Cancel))

	// Fares
	a.mux.Handle("POST /fares/estimate", a.m.RequireRoles(a.routes.fare.Estimate))

	// Drivers
	a.mux.Handle("POST /drivers/online", a.m.RequireRoles(a.routes.driver.GoOnline, types.RoleDriver))
	a.mux.Handle("POST /drivers/offline", a.m.RequireRoles(a.routes.driver.GoOffline, types.RoleDriver))
	a.mux.Handle("POST /drivers/location", a.m.RequireRoles(a.routes.driver.UpdateLocation, types.RoleDriver))

	// Realtime gateway authenticates the token itself: connections may
	// pass it as a query parameter, which the Auth middleware ignores.
	a.mux.HandleFunc("GET /ws", a.routes.gateway.Handle)
}
