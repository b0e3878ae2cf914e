// Package hub fans websocket messages out to dashboard viewers.
//
// A Hub owns its client set on the goroutine running Run; everything else
// talks to it over channels.
package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Kind selects the websocket frame type of a Message.
type Kind int

const (
	// Text carries JSON events.
	Text Kind = iota
	// Binary carries preview JPEGs.
	Binary
)

// Message is one broadcast payload.
type Message struct {
	Kind Kind
	Data []byte
}

// DefaultClientBuffer is the per-client queue length.
const DefaultClientBuffer = 256

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	name   string
	logger *slog.Logger

	clients    map[*Client]struct{}
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client

	done chan struct{}
	once sync.Once

	// guards clients for ClientCount and last
	mu   sync.RWMutex
	last *Message

	replay     bool
	keepLatest bool
	buffer     int
}

// Option configures a Hub.
type Option func(*Hub)

// WithLogger sets the hub logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) { h.logger = logger }
}

// WithReplay sends the most recent message to every client on connect,
// so a new viewer sees the current verdict immediately.
func WithReplay() Option {
	return func(h *Hub) { h.replay = true }
}

// WithKeepLatest makes a full client queue shed its oldest message instead
// of disconnecting the client. Suits preview frames, where only the newest
// one matters.
func WithKeepLatest() Option {
	return func(h *Hub) { h.keepLatest = true }
}

// WithClientBuffer sets the per-client queue length.
func WithClientBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

// New creates a new Hub.
func New(name string, opts ...Option) *Hub {
	h := &Hub{
		name:       name,
		logger:     slog.Default(),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		buffer:     DefaultClientBuffer,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With("hub", name)
	return h
}

// Run owns the client set until Stop. Call it on its own goroutine.
func (h *Hub) Run() {
	defer h.disconnectAll()

	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			h.add(c)

		case c := <-h.unregister:
			h.remove(c, "client disconnected")

		case m := <-h.broadcast:
			h.fanOut(m)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	last := h.last
	h.mu.Unlock()

	if last != nil {
		c.offer(*last, false)
	}
	h.logger.Debug("client connected", "client", c.id, "clients", n)
}

func (h *Hub) remove(c *Client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Debug(reason, "client", c.id, "clients", n)
	}
}

func (h *Hub) fanOut(m Message) {
	h.mu.Lock()
	if h.replay {
		h.last = &m
	}
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if !c.offer(m, h.keepLatest) {
			h.logger.Warn("dropping slow client", "client", c.id)
			h.remove(c, "slow client removed")
		}
	}
}

func (h *Hub) disconnectAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// Stop ends Run and disconnects all clients. Safe to call more than once.
func (h *Hub) Stop() {
	h.once.Do(func() { close(h.done) })
}

// Broadcast queues msg for every client. It never blocks; when the hub is
// backed up the message is dropped.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.logger.Warn("broadcast queue full, dropping message")
	}
}

// BroadcastJSON encodes v and broadcasts it as a text frame.
func (h *Hub) BroadcastJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(Message{Kind: Text, Data: data})
	return nil
}

// BroadcastBinary broadcasts data as a binary frame.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(Message{Kind: Binary, Data: data})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
