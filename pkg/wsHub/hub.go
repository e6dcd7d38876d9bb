package ws

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/zhans-k/ride-dispatch/pkg/logger"
	wrap "github.com/zhans-k/ride-dispatch/pkg/logger/wrapper"
)

var (
	ErrEmptyConn      = errors.New("connection is empty")
	ErrConnIsNotFound = errors.New("connection not found")
)

// Hub owns every active connection and its topic memberships.
// It is injected wherever broadcast is needed; there is no package-level
// singleton, and lifecycle is explicit: Register on connect, Unregister on
// disconnect.
type Hub struct {
	clients map[uuid.UUID]Client
	topics  map[string]map[uuid.UUID]Client
	l       logger.Logger
	mu      sync.RWMutex
}

func NewHub(l logger.Logger) *Hub {
	return &Hub{
		clients: make(map[uuid.UUID]Client),
		topics:  make(map[string]map[uuid.UUID]Client),
		l:       l,
	}
}

// Register adds a new connection to the hub.
// An existing connection for the same entity is closed and replaced.
func (h *Hub) Register(newConn Client) error {
	if newConn == nil {
		return ErrEmptyConn
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "ws_register_connection")

	if existing, ok := h.clients[newConn.ID()]; ok {
		h.l.Warn(ctx,
			"replacing existing connection",
			"entity_id", existing.ID(),
		)
		h.removeFromAllTopicsLocked(existing.ID())
		if err := existing.Close(); err != nil {
			h.l.Warn(ctx,
				"failed to close existing conn",
				"entity_id", existing.ID(),
				"err", err.Error(),
			)
		}
	}

	h.clients[newConn.ID()] = newConn

	return nil
}

// Unregister removes the connection, drops all its topic memberships and
// closes it.
func (h *Hub) Unregister(entityID uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	ctx := wrap.WithAction(context.Background(), "ws_unregister_connection")

	conn, ok := h.clients[entityID]
	if !ok {
		h.l.Warn(ctx,
			"unregister called for unknown entity",
			"entity_id", entityID,
		)
		return ErrConnIsNotFound
	}

	h.removeFromAllTopicsLocked(entityID)

	if err := conn.Close(); err != nil {
		h.l.Warn(ctx,
			"failed to close conn",
			"entity_id", entityID,
			"err", err.Error(),
		)
	}

	delete(h.clients, entityID)

	return nil
}

// Join subscribes a registered connection to a topic.
func (h *Hub) Join(topic string, entityID uuid.UUID) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.clients[entityID]
	if !ok {
		return ErrConnIsNotFound
	}

	members, ok := h.topics[topic]
	if !ok {
		members = make(map[uuid.UUID]Client)
		h.topics[topic] = members
	}
	members[entityID] = conn

	return nil
}

// Leave removes a connection from a topic. Leaving a topic the connection
// never joined is a no-op.
func (h *Hub) Leave(topic string, entityID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.topics[topic]; ok {
		delete(members, entityID)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
}

// SendTo delivers a message to one specific client.
// Returns ErrConnIsNotFound if the client is not connected.
func (h *Hub) SendTo(id uuid.UUID, msg any) error {
	h.mu.RLock()
	conn, ok := h.clients[id]
	h.mu.RUnlock()

	if !ok {
		return ErrConnIsNotFound
	}
	return conn.Send(msg)
}

// Publish fans a message out to every current member of a topic.
// Delivery is at-most-once: a failed send drops the message for that
// recipient only and never fails the publish.
func (h *Hub) Publish(topic string, msg any) {
	h.mu.RLock()
	members := make([]Client, 0, len(h.topics[topic]))
	for _, conn := range h.topics[topic] {
		members = append(members, conn)
	}
	h.mu.RUnlock()

	ctx := wrap.WithAction(context.Background(), "ws_publish")

	for _, conn := range members {
		if err := conn.Send(msg); err != nil {
			h.l.Debug(ctx,
				"dropped message for slow or dead subscriber",
				"topic", topic,
				"entity_id", conn.ID(),
				"err", err.Error(),
			)
		}
	}
}

// TopicSize returns the current number of subscribers of a topic.
func (h *Hub) TopicSize(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Clients returns a snapshot of the connected clients.
func (h *Hub) Clients() map[uuid.UUID]Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	copyMap := make(map[uuid.UUID]Client, len(h.clients))
	for id, conn := range h.clients {
		copyMap[id] = conn
	}
	return copyMap
}

// Close closes every connection.
func (h *Hub) Close() {
	ctx := wrap.WithAction(context.Background(), "ws_hub_close")

	h.mu.RLock()
	ids := make([]uuid.UUID, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		_ = h.Unregister(id)
	}

	h.l.Info(ctx, "all websocket connections closed gracefully")
}

// caller must hold h.mu
func (h *Hub) removeFromAllTopicsLocked(entityID uuid.UUID) {
	for topic, members := range h.topics {
		delete(members, entityID)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
}
