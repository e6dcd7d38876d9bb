package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zhans-k/ride-dispatch/config"
	httpserver "github.com/zhans-k/ride-dispatch/internal/adapter/http/server"
	"github.com/zhans-k/ride-dispatch/internal/adapter/postgres"
	rabbitadapter "github.com/zhans-k/ride-dispatch/internal/adapter/rabbit"
	wshandler "github.com/zhans-k/ride-dispatch/internal/adapter/ws"
	"github.com/zhans-k/ride-dispatch/internal/service/auth"
	"github.com/zhans-k/ride-dispatch/internal/service/dispatch"
	"github.com/zhans-k/ride-dispatch/internal/service/fare"
	"github.com/zhans-k/ride-dispatch/pkg/logger"
	postgresclient "github.com/zhans-k/ride-dispatch/pkg/postgres"
	"github.com/zhans-k/ride-dispatch/pkg/rabbit"
	"github.com/zhans-k/ride-dispatch/pkg/trm"
	ws "github.com/zhans-k/ride-dispatch/pkg/wsHub"
)

// App owns every long-lived resource of the dispatch service and wires
// the adapters to the services.
type App struct {
	postgresDB *postgresclient.PostgreDB
	rabbitMQ   *rabbit.RabbitMQ
	hub        *ws.Hub
	httpServer *httpserver.API

	cfg config.Config
	log logger.Logger
}

func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	db, err := postgresclient.New(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	// repositories
	bookingRepo := postgres.NewBookingRepo(db.Pool)
	offerRepo := postgres.NewOfferRepo(db.Pool)
	earningRepo := postgres.NewEarningRepo(db.Pool)
	driverRepo := postgres.NewDriverRepo(db.Pool)

	txManager := trm.New(db.Pool)

	// realtime fan-out
	hub := ws.NewHub(log)
	notifier := wshandler.NewNotifier(hub)

	// event feed; optional, the database commit stays the source of truth
	var (
		rabbitMQ  *rabbit.RabbitMQ
		publisher dispatch.Publisher
	)
	if !cfg.RabbitMQ.Disabled {
		rabbitMQ, err = rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
		if err != nil {
			return nil, err
		}

		broker, err := rabbitadapter.NewBookingBroker(ctx, rabbitMQ, log)
		if err != nil {
			return nil, err
		}
		publisher = broker
	}

	// services
	fareEngine := fare.New(cfg.Fare)
	dispatchSvc := dispatch.New(
		bookingRepo,
		offerRepo,
		earningRepo,
		driverRepo,
		fareEngine,
		notifier,
		publisher,
		txManager,
		log,
	)
	tokenSvc := auth.NewTokenService(cfg.Auth.JWTSecret, log)

	gateway := wshandler.NewGateway(hub, dispatchSvc, tokenSvc, log)

	server, err := httpserver.New(cfg, dispatchSvc, dispatchSvc, fareEngine, tokenSvc, gateway, log)
	if err != nil {
		return nil, err
	}

	return &App{
		postgresDB: db,
		rabbitMQ:   rabbitMQ,
		hub:        hub,
		httpServer: server,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	defer func() {
		a.close(ctx)
		a.log.Info(ctx, "dispatch service closed")
	}()

	errCh := make(chan error, 1)
	a.httpServer.Run(ctx, errCh)

	// Waiting signal
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	a.log.Info(ctx, "service started")
	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		a.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	}
}

func (a *App) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error(ctx, "failed to shutdown HTTP server", err)
	}

	a.hub.Close()

	if a.rabbitMQ != nil {
		if err := a.rabbitMQ.Close(ctx); err != nil {
			a.log.Error(ctx, "failed to close RabbitMQ connection", err)
		}
	}

	a.postgresDB.Pool.Close()
}
