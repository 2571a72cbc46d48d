// Package server coordinates client registration, outbound delivery and
// connection cleanup for the relay's WebSocket connections via the Hub type.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/Tyrowin/roomrelay/internal/relay"
	"github.com/Tyrowin/roomrelay/internal/room"
	"github.com/Tyrowin/roomrelay/pkg/log"
)

// ErrHubStopped is returned when a client is handed to a hub that has shut down.
var ErrHubStopped = errors.New("hub stopped")

// Hub owns every live WebSocket client, keyed by session identifier, and
// implements relay.Sender on top of them.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	relay      *relay.Relay
	sendBuffer int
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	logger     *zap.Logger
}

var _ relay.Sender = (*Hub)(nil)

// NewHub creates a Hub whose relay mutates registry. The returned Hub accepts
// clients once Run is started.
func NewHub(registry *room.Registry, sendBuffer int, opts ...relay.DispatcherOption) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		sendBuffer: sendBuffer,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		logger:     log.With(log.FieldComponent("hub")),
	}
	h.relay = relay.New(registry, h, opts...)
	return h
}

// Relay returns the relay the hub's clients report to.
func (h *Hub) Relay() *relay.Relay {
	return h.relay
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Register hands a client to the hub, which starts its pumps.
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// Send encodes ev and queues it for the session's connection without
// blocking. A connection whose queue is full is dropped.
func (h *Hub) Send(sessionID string, ev relay.Event) bool {
	h.mutex.RLock()
	client, ok := h.clients[sessionID]
	h.mutex.RUnlock()
	if !ok {
		return false
	}

	payload, err := encodeEvent(ev)
	if err != nil {
		h.logger.Error("Failed to encode event", zap.String("event", ev.Name), zap.Error(err))
		return false
	}

	if h.safeSend(client, payload) {
		return true
	}
	h.removeClient(client, "send buffer full")
	return false
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	// Hold the read lock across the send so removeClient cannot close the
	// channel underneath us.
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	if current, exists := h.clients[client.ID()]; !exists || current != client || client.closed.Load() {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling client registration and
// unregistration. It returns once Shutdown is called.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.logger.Warn("Received nil client registration; skipping")
				continue
			}

			h.mutex.Lock()
			h.clients[client.ID()] = client
			clientCount := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Client registered",
				log.FieldSession(client.ID()),
				zap.String("addr", client.addr),
				zap.Int("clients", clientCount))

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.removeClient(client, "unregistered")
		}
	}
}

// removeClient forgets client and closes its send channel, which makes the
// write pump close the socket.
func (h *Hub) removeClient(client *Client, reason string) {
	h.mutex.Lock()
	current, ok := h.clients[client.ID()]
	if !ok || current != client {
		h.mutex.Unlock()
		return
	}
	delete(h.clients, client.ID())
	client.closed.Store(true)
	clientCount := len(h.clients)
	h.mutex.Unlock()

	// Close the channel after releasing the lock
	close(client.send)
	h.logger.Info("Client removed",
		log.FieldSession(client.ID()),
		zap.String("addr", client.addr),
		zap.String("reason", reason),
		zap.Int("clients", clientCount))
}

// unregisterClient hands client back to the loop, or removes it directly when
// the loop has already exited.
func (h *Hub) unregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		h.removeClient(client, "hub stopped")
	}
}

// shutdownClients closes all active client connections. The read pumps then
// fail and run the disconnect path for each session.
func (h *Hub) shutdownClients() {
	h.logger.Info("Shutting down all client connections...")

	h.mutex.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.RUnlock()

	for _, client := range clients {
		if client.conn == nil {
			continue
		}
		if err := client.conn.Close(); err != nil && !isExpectedCloseError(err) {
			h.logger.Warn("Error closing client connection", zap.String("addr", client.addr), zap.Error(err))
		}
	}

	h.logger.Info("Closed client connections", zap.Int("count", len(clients)))
}

// Shutdown stops the hub and waits for every client goroutine to finish, or
// until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.logger.Info("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.logger.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return errors.Wrap(context.DeadlineExceeded, "hub shutdown")
	}
}
