package rabbit

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/zhans-k/ride-dispatch/pkg/logger"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
)

type RabbitMQ struct {
	Conn      *amqp.Connection
	Channel   *amqp.Channel
	closeChan chan *amqp.Error
	isClosed  bool
	mu        sync.Mutex
	dsn       string

	log logger.Logger
}

// New creates a RabbitMQ client
func New(ctx context.Context, dsn string, log logger.Logger) (*RabbitMQ, error) {
	conn, channel, closeChan, err := dial(ctx, dsn, log)
	if err != nil {
		return nil, err
	}

	log.Info(wrap.WithAction(ctx, "rabbitmq_connected"), "connected to RabbitMQ")

	r := &RabbitMQ{
		Conn:      conn,
		Channel:   channel,
		closeChan: closeChan,
		isClosed:  false,
		dsn:       dsn,
		log:       log,
	}

	go r.monitorConnection()

	return r, nil
}

func dial(ctx context.Context, dsn string, log logger.Logger) (*amqp.Connection, *amqp.Channel, chan *amqp.Error, error) {
	conn, err := amqp.DialConfig(dsn, amqp.Config{
		Heartbeat: 10 * time.Second,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	connCloseChan := make(chan *amqp.Error, 1)
	chCloseChan := make(chan *amqp.Error, 1)
	conn.NotifyClose(connCloseChan)
	channel.NotifyClose(chCloseChan)

	// Merge both close notifications into one channel for monitoring
	merged := make(chan *amqp.Error, 2)
	go func() {
		select {
		case err := <-connCloseChan:
			merged <- err
		case err := <-chCloseChan:
			merged <- err
		}
	}()

	return conn, channel, merged, nil
}

// monitorConnection watches for a broker-initiated close
func (r *RabbitMQ) monitorConnection() {
	closeErr := <-r.closeChan

	r.mu.Lock()
	r.isClosed = true
	r.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "rabbitmq_connection_closed")
	if closeErr != nil {
		r.log.Error(ctx, "RabbitMQ connection closed with error", closeErr)
	} else {
		r.log.Debug(ctx, "RabbitMQ connection closed gracefully")
	}
}

// IsConnectionClosed checks if the connection is closed
func (r *RabbitMQ) IsConnectionClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Conn == nil || r.Channel == nil {
		return true
	}
	return r.isClosed || r.Conn.IsClosed() || r.Channel.IsClosed()
}

// EnsureConnection re-dials if the connection or channel was lost.
func (r *RabbitMQ) EnsureConnection(ctx context.Context) error {
	if !r.IsConnectionClosed() {
		return nil
	}

	conn, channel, closeChan, err := dial(ctx, r.dsn, r.log)
	if err != nil {
		return fmt.Errorf("failed to reconnect: %w", err)
	}

	r.mu.Lock()
	r.Conn = conn
	r.Channel = channel
	r.closeChan = closeChan
	r.isClosed = false
	r.mu.Unlock()

	go r.monitorConnection()

	r.log.Info(wrap.WithAction(ctx, "rabbitmq_reconnection_success"), "reconnected to RabbitMQ")

	return nil
}

// Close closes the channel and connection.
func (r *RabbitMQ) Close(ctx context.Context) error {
	ctx = wrap.WithAction(ctx, "rabbitmq_connection_closing")

	r.mu.Lock()
	if r.isClosed {
		r.mu.Unlock()
		return nil
	}
	// mark closed early to avoid races with concurrent Close calls
	r.isClosed = true
	ch := r.Channel
	conn := r.Conn
	r.Channel = nil
	r.Conn = nil
	r.mu.Unlock()

	if ch != nil {
		if err := ch.Close(); err != nil {
			r.log.Error(ctx, "error closing channel", err)
		}
	}

	r.log.Debug(ctx, "closing RabbitMQ connection")

	if conn != nil {
		if err := conn.Close(); err != nil {
			return fmt.Errorf("failed to close RabbitMQ connection: %w", err)
		}
	}

	return nil
}
