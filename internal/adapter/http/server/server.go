package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zhans-k/ride-dispatch/config"
	"github.com/zhans-k/ride-dispatch/internal/adapter/http/handler"
	"github.com/zhans-k/ride-dispatch/internal/adapter/http/middleware"
	wshandler "github.com/zhans-k/ride-dispatch/internal/adapter/ws"
	"github.com/zhans-k/ride-dispatch/pkg/logger"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
)

const serviceName = "dispatch"

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	log  logger.Logger
}

type handlers struct {
	booking *handler.Booking
	driver  *handler.Driver
	fare    *handler.Fare
	health  *handler.Health
	gateway *wshandler.Gateway
}

func New(
	cfg config.Config,
	bookingService handler.BookingService,
	driverService handler.DriverService,
	fareEngine handler.FareEstimator,
	tokens middleware.TokenVerifier,
	gateway *wshandler.Gateway,
	log logger.Logger,
) (*API, error) {
	if tokens == nil {
		return nil, errors.New("token verifier is required")
	}

	routes := &handlers{
		booking: handler.NewBooking(bookingService, log),
		driver:  handler.NewDriver(driverService, log),
		fare:    handler.NewFare(fareEngine, log),
		health:  handler.NewHealth(serviceName, log),
		gateway: gateway,
	}

	api := &API{
		mux:    http.NewServeMux(),
		routes: routes,
		m:      middleware.NewMiddleware(tokens, log),
		addr:   fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		log:    log,
	}

	api.setupRoutes()

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	return api, nil
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
			return
		}
	}()
}

// withMiddleware applies the common chain to the mux.
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Metrics(serviceName)(a.m.Logging(a.m.Auth(a.mux)))))
}
