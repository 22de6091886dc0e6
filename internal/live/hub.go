package live

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	// ErrClosed is returned by Broadcast once the hub stopped.
	ErrClosed = errors.New("live: hub closed")
	// ErrBacklog is returned when the broadcast queue is full.
	ErrBacklog = errors.New("live: broadcast queue full")
)

// Message is the envelope pushed to every connected browser.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithCheckOrigin replaces the upgrader origin check. The default only
// accepts same-host origins.
func WithCheckOrigin(fn func(*http.Request) bool) Option {
	return func(h *Hub) {
		if fn != nil {
			h.upgrader.CheckOrigin = fn
		}
	}
}

// Hub fans server messages out to websocket clients. Run owns the client
// set; everything else talks to it through channels.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}

	clients map[*client]struct{}
	count   atomic.Int64
	// last is replayed to clients that connect after a broadcast
	last []byte
}

// NewHub builds a hub; call Run before serving connections.
func NewHub(options ...Option) *Hub {
	h := &Hub{
		logger: zap.NewNop(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
		clients:    make(map[*client]struct{}),
	}
	for _, opt := range options {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		close(h.done)
		for c := range h.clients {
			h.drop(c)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.count.Add(1)
			if h.last != nil {
				c.enqueue(h.last)
			}
			h.logger.Debug("live client connected", zap.String("client_id", c.id), zap.Int64("clients", h.count.Load()))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.logger.Debug("live client disconnected", zap.String("client_id", c.id), zap.Int64("clients", h.count.Load()))
			}
		case data := <-h.broadcast:
			h.last = data
			for c := range h.clients {
				if !c.enqueue(data) {
					h.logger.Warn("live client too slow, dropping message", zap.String("client_id", c.id))
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	h.count.Add(-1)
	close(c.send)
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	return int(h.count.Load())
}

// Broadcast queues a message of msgType carrying data for all clients. It
// never blocks.
func (h *Hub) Broadcast(msgType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("live: encode %s: %w", msgType, err)
	}
	payload, err := json.Marshal(Message{Type: msgType, Data: raw})
	if err != nil {
		return fmt.Errorf("live: encode %s: %w", msgType, err)
	}
	select {
	case <-h.done:
		return ErrClosed
	default:
	}
	select {
	case h.broadcast <- payload:
		return nil
	case <-h.done:
		return ErrClosed
	default:
		return ErrBacklog
	}
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	select {
	case <-h.done:
		http.Error(w, "live feed stopped", http.StatusServiceUnavailable)
		return
	default:
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("live upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}
