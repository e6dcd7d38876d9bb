package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/zhans-k/ride-dispatch/internal/domain/models"
	"github.com/zhans-k/ride-dispatch/internal/domain/types"
	"github.com/zhans-k/ride-dispatch/pkg/logger"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
	"github.com/zhans-k/ride-dispatch/pkg/metrics"
	"github.com/zhans-k/ride-dispatch/pkg/rabbit"
)

const BookingExchange = "booking_topic"

// BookingBroker publishes booking lifecycle messages for downstream
// consumers (billing, analytics). The database commit is the source of
// truth; a failed publish is the caller's to log and ignore.
type BookingBroker struct {
	client   *rabbit.RabbitMQ
	exchange string

	l logger.Logger
}

func NewBookingBroker(ctx context.Context, client *rabbit.RabbitMQ, log logger.Logger) (*BookingBroker, error) {
	broker := &BookingBroker{
		client:   client,
		exchange: BookingExchange,

		l: log,
	}

	if err := client.Channel.ExchangeDeclare(
		broker.exchange, // name
		"topic",         // kind
		true,            // durable
		false,           // auto-delete
		false,           // internal
		false,           // no-wait
		nil,             // args
	); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("failed to declare exchange: %w", err))
	}

	return broker, nil
}

// PublishBookingEvent sends the message to the booking_topic exchange
// with a routing key derived from the booking's status.
func (r *BookingBroker) PublishBookingEvent(ctx context.Context, msg models.BookingEventMessage) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_publish_booking_event")

	if err := r.client.EnsureConnection(ctx); err != nil {
		r.l.Error(ctx, "ensure connection failed", err)
		return wrap.Error(ctx, err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to marshal message: %w", err))
	}

	key := routingKey(msg.Status)

	if err := retry(5, time.Second, func() error {
		return r.client.Channel.PublishWithContext(
			ctx,
			r.exchange, // exchange
			key,        // routing key
			false,      // mandatory
			false,      // immediate
			amqp091.Publishing{
				ContentType:   "application/json",
				CorrelationId: msg.CorrelationID,
				Body:          body,
				Timestamp:     time.Now(),
			},
		)
	}); err != nil {
		metrics.RecordRabbitMQPublish("dispatch", r.exchange, err)
		return wrap.Error(ctx, fmt.Errorf("failed to publish with context: %w", err))
	}

	metrics.RecordRabbitMQPublish("dispatch", r.exchange, nil)

	return nil
}

// routingKey maps a booking status to the topic key consumers bind on.
// Trip progress states share the booking.status.* prefix.
func routingKey(status types.BookingStatus) string {
	switch status {
	case types.StatusPending:
		return "booking.created"
	case types.StatusAccepted:
		return "booking.assigned"
	case types.StatusCancelled:
		return "booking.cancelled"
	default:
		return fmt.Sprintf("booking.status.%s", status)
	}
}

func retry(n int, sleep time.Duration, fn func() error) error {
	var err error
	for range n {
		if err = fn(); err == nil {
			return nil
		}
		time.Sleep(sleep)
	}
	return err
}
