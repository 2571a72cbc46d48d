// Package relay turns connection events into room membership changes and
// fan-out. It knows nothing about the wire: outbound events leave through a
// Sender supplied by the transport.
package relay

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tyrowin/roomrelay/internal/room"
	"github.com/Tyrowin/roomrelay/pkg/log"
	"github.com/Tyrowin/roomrelay/pkg/metrics"
)

// Relay wires session events to the registry and the dispatcher.
//
// Membership changes and the presence fan-out they cause run under one lock,
// so every member's last room_users event carries the room's current size.
// The Sender must not call back into the Relay.
type Relay struct {
	mu         sync.Mutex
	registry   *room.Registry
	dispatcher *Dispatcher
	logger     *zap.Logger
}

// New builds a Relay around registry, delivering outbound events via sender.
func New(registry *room.Registry, sender Sender, opts ...DispatcherOption) *Relay {
	return &Relay{
		registry:   registry,
		dispatcher: NewDispatcher(registry, sender, opts...),
		logger:     log.With(log.FieldModule("relay")),
	}
}

// Registry returns the membership index the relay mutates.
func (r *Relay) Registry() *room.Registry {
	return r.registry
}

// Dispatcher returns the relay's fan-out component.
func (r *Relay) Dispatcher() *Dispatcher {
	return r.dispatcher
}

// Connect allocates a session for a new connection. It is not in any room.
func (r *Relay) Connect() *Session {
	s := newSession(uuid.NewString())
	metrics.SessionsConnected.Inc()
	r.logger.Debug("session connected", log.FieldSession(s.ID()))
	return s
}

// Join puts s into roomName and tells the room its new size. A session that
// was in another room leaves it first and that room is told as well.
func (r *Relay) Join(s *Session, roomName string) {
	if roomName == "" {
		r.logger.Debug("ignoring join without room name", log.FieldSession(s.ID()))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if !s.Connected() {
		return
	}

	count, prev, moved := r.registry.Join(s.ID(), roomName)
	metrics.MembershipChanges.WithLabelValues(EventJoinRoom).Inc()
	metrics.RoomsActive.Set(float64(r.registry.RoomCount()))
	if moved {
		r.logger.Info("session switched rooms",
			log.FieldSession(s.ID()),
			zap.String("from", prev.Room),
			zap.Int("remaining", prev.Count))
		r.dispatcher.BroadcastPresence(prev.Room, prev.Count)
	}

	r.logger.Info("session joined room",
		log.FieldSession(s.ID()),
		log.FieldRoom(roomName),
		zap.Int("members", count))
	r.dispatcher.BroadcastPresence(roomName, count)
}

// Send relays msg from s to the rest of its room.
func (r *Relay) Send(s *Session, msg Message) {
	if !s.Connected() {
		return
	}
	r.dispatcher.RelayMessage(s.ID(), msg)
}

// Leave takes s out of its room. The room and s itself receive the new size.
// Nothing is sent when s was not in a room.
func (r *Relay) Leave(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !s.Connected() {
		return
	}

	dep, ok := r.registry.Leave(s.ID())
	if !ok {
		return
	}
	metrics.MembershipChanges.WithLabelValues(EventLeaveRoom).Inc()
	metrics.RoomsActive.Set(float64(r.registry.RoomCount()))

	r.logger.Info("session left room",
		log.FieldSession(s.ID()),
		log.FieldRoom(dep.Room),
		zap.Int("members", dep.Count))
	r.dispatcher.BroadcastPresence(dep.Room, dep.Count)
	r.dispatcher.Notify(s.ID(), Event{Name: EventRoomUsers, Data: dep.Count})
}

// Disconnect ends s. It removes the session from its room, tells the
// remaining members and ignores every later call for the same session.
func (r *Relay) Disconnect(s *Session) {
	if !s.markDisconnected() {
		return
	}
	metrics.SessionsConnected.Dec()

	r.mu.Lock()
	defer r.mu.Unlock()
	dep, ok := r.registry.Disconnect(s.ID())
	if !ok {
		r.logger.Debug("session disconnected", log.FieldSession(s.ID()))
		return
	}
	metrics.MembershipChanges.WithLabelValues("disconnect").Inc()
	metrics.RoomsActive.Set(float64(r.registry.RoomCount()))

	r.logger.Info("session disconnected from room",
		log.FieldSession(s.ID()),
		log.FieldRoom(dep.Room),
		zap.Int("members", dep.Count))
	r.dispatcher.BroadcastPresence(dep.Room, dep.Count)
}
