package wshandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/zhans-k/ride-dispatch/internal/adapter/ws/dto"
	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	"github.com/zhans-k/ride-dispatch/pkg/logger"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
	"github.com/zhans-k/ride-dispatch/pkg/metrics"
	"github.com/zhans-k/ride-dispatch/pkg/validator"
	ws "github.com/zhans-k/ride-dispatch/pkg/wsHub"
)

// DispatchService is the slice of the dispatch engine the gateway drives
// on behalf of connected clients.
type DispatchService interface {
	Get(ctx context.Context, principal *models.Principal, bookingID uuid.UUID) (*models.Booking, error)
	DirectAccept(ctx context.Context, driverID, bookingID uuid.UUID) (*models.Booking, error)
	UpdateStatus(ctx context.Context, driverID, bookingID uuid.UUID, target types.BookingStatus) (*models.Booking, error)
	UpdateDriverLocation(ctx context.Context, driverID uuid.UUID, loc models.Location) error
	SetOnline(ctx context.Context, driverID uuid.UUID, online bool) error
	GetDriver(ctx context.Context, driverID uuid.UUID) (*models.Driver, error)
}

type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*models.Principal, error)
}

// Gateway upgrades HTTP requests to websocket connections, authenticates
// them and runs each connection's intent loop.
type Gateway struct {
	hub      *ws.Hub
	dispatch DispatchService
	tokens   TokenVerifier
	upgrader websocket.Upgrader

	l logger.Logger
}

func NewGateway(hub *ws.Hub, dispatch DispatchService, tokens TokenVerifier, log logger.Logger) *Gateway {
	return &Gateway{
		hub:      hub,
		dispatch: dispatch,
		tokens:   tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		l: log,
	}
}

// Handle authenticates the request, upgrades it and serves the
// connection until the client disconnects.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ws_connect")

	principal, err := g.authenticate(ctx, r)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	ctx = wrap.WithUserID(ctx, principal.UserID.String())

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.l.Error(ctx, "websocket upgrade failed", err)
		return
	}

	client := ws.NewConn(ctx, principal.UserID, conn)
	if err := g.hub.Register(client); err != nil {
		g.l.Error(ctx, "failed to register connection", err)
		_ = client.Close()
		return
	}

	metrics.WebSocketConnectionsGauge.WithLabelValues("dispatch").Inc()
	defer func() {
		_ = g.hub.Unregister(principal.UserID)
		metrics.WebSocketConnectionsGauge.WithLabelValues("dispatch").Dec()
	}()

	if err := g.joinInitialTopics(ctx, principal); err != nil {
		g.l.Warn(ctx, "failed to join initial topics", "error", err.Error())
	}

	g.l.Info(ctx, "websocket client connected", "role", principal.Role.String())

	err = client.Listen(func(msg map[string]any) error {
		if err := g.handleIntent(ctx, principal, client, msg); err != nil {
			// intent failures go back to the client, they never kill
			// the connection
			return errorResponse(client, err.Error())
		}
		return nil
	})
	if err != nil {
		g.l.Debug(ctx, "websocket client disconnected", "error", err.Error())
	}
}

func (g *Gateway) authenticate(ctx context.Context, r *http.Request) (*models.Principal, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		header := r.Header.Get("Authorization")
		if len(header) > 7 && header[:7] == "Bearer " {
			token = header[7:]
		}
	}
	if token == "" {
		return nil, fmt.Errorf("missing token")
	}

	return g.tokens.Verify(ctx, token)
}

// joinInitialTopics places everyone on their user topic. Drivers that
// are approved and currently online also join the available-work topic.
func (g *Gateway) joinInitialTopics(ctx context.Context, principal *models.Principal) error {
	if err := g.hub.Join(UserTopic(principal.UserID), principal.UserID); err != nil {
		return err
	}

	if principal.Role != types.RoleDriver || principal.DriverID == nil {
		return nil
	}

	driver, err := g.dispatch.GetDriver(ctx, *principal.DriverID)
	if err != nil {
		return err
	}
	if driver.Approved && driver.Online {
		return g.hub.Join(TopicDriversAvailable, principal.UserID)
	}
	return nil
}

func (g *Gateway) handleIntent(ctx context.Context, principal *models.Principal, client ws.Client, msg map[string]any) error {
	intentType, _ := msg["type"].(string)

	switch intentType {
	case dto.IntentDriverOnline:
		return g.setOnline(ctx, principal, true)

	case dto.IntentDriverOffline:
		return g.setOnline(ctx, principal, false)

	case dto.IntentBookingAccept:
		var req dto.BookingIntent
		if err := decodeIntent(msg, &req, client); err != nil {
			return err
		}
		if principal.DriverID == nil {
			return types.ErrUnauthorized
		}
		_, err := g.dispatch.DirectAccept(ctx, *principal.DriverID, req.BookingID)
		return err

	case dto.IntentDriverLocation:
		var req dto.LocationIntent
		if err := decodeIntent(msg, &req, client); err != nil {
			return err
		}
		if principal.DriverID == nil {
			return types.ErrUnauthorized
		}
		return g.dispatch.UpdateDriverLocation(ctx, *principal.DriverID, models.Location{
			Latitude:  req.Latitude,
			Longitude: req.Longitude,
		})

	case dto.IntentBookingStatus:
		var req dto.StatusIntent
		if err := decodeIntent(msg, &req, client); err != nil {
			return err
		}
		if principal.DriverID == nil {
			return types.ErrUnauthorized
		}
		_, err := g.dispatch.UpdateStatus(ctx, *principal.DriverID, req.BookingID, req.Status)
		return err

	case dto.IntentBookingSubscribe:
		var req dto.BookingIntent
		if err := decodeIntent(msg, &req, client); err != nil {
			return err
		}
		// participants and admins only; Get enforces it
		if _, err := g.dispatch.Get(ctx, principal, req.BookingID); err != nil {
			return err
		}
		return g.hub.Join(BookingTopic(req.BookingID), principal.UserID)

	case dto.IntentBookingUnsubscribe:
		var req dto.BookingIntent
		if err := decodeIntent(msg, &req, client); err != nil {
			return err
		}
		g.hub.Leave(BookingTopic(req.BookingID), principal.UserID)
		return nil

	default:
		return fmt.Errorf("unknown intent type %q", intentType)
	}
}

// setOnline flips the driver's availability and their membership of the
// available-work topic in one step.
func (g *Gateway) setOnline(ctx context.Context, principal *models.Principal, online bool) error {
	if principal.DriverID == nil {
		return types.ErrUnauthorized
	}

	if err := g.dispatch.SetOnline(ctx, *principal.DriverID, online); err != nil {
		return err
	}

	if online {
		driver, err := g.dispatch.GetDriver(ctx, *principal.DriverID)
		if err != nil {
			return err
		}
		if driver.Approved {
			return g.hub.Join(TopicDriversAvailable, principal.UserID)
		}
		return nil
	}

	g.hub.Leave(TopicDriversAvailable, principal.UserID)
	return nil
}

type validatable interface {
	Validate(v *validator.Validator)
}

// decodeIntent maps the raw message onto the intent's dto and validates
// it, reporting field errors straight back to the client.
func decodeIntent(msg map[string]any, req validatable, client ws.Client) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, req); err != nil {
		return fmt.Errorf("malformed intent payload: %w", err)
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		if err := failedValidationResponse(client, v.Errors); err != nil {
			return fmt.Errorf("failed to send validation response: %w", err)
		}
		return fmt.Errorf("intent validation failed")
	}

	return nil
}
