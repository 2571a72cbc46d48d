package relay

import (
	"go.uber.org/zap"

	"github.com/Tyrowin/roomrelay/pkg/log"
	"github.com/Tyrowin/roomrelay/pkg/metrics"
)

// Membership is the part of the room registry the dispatcher reads.
type Membership interface {
	RoomOf(sessionID string) (string, bool)
	Members(roomName string) []string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithPayloadRoomTrust makes RelayMessage route by the room named in the
// message instead of the sender's registered room. A sender that has not
// joined any room is still dropped.
func WithPayloadRoomTrust(v bool) DispatcherOption {
	return func(d *Dispatcher) {
		d.trustPayloadRoom = v
	}
}

// Dispatcher fans events out to the members of a room.
type Dispatcher struct {
	members          Membership
	sender           Sender
	trustPayloadRoom bool
	logger           *zap.Logger
}

// NewDispatcher returns a Dispatcher resolving recipients through members and
// delivering through sender.
func NewDispatcher(members Membership, sender Sender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		members: members,
		sender:  sender,
		logger:  log.With(log.FieldComponent("dispatcher")),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// RelayMessage queues msg for every session in the sender's room except the
// sender itself and returns how many sessions accepted it.
func (d *Dispatcher) RelayMessage(senderID string, msg Message) int {
	registered, ok := d.members.RoomOf(senderID)
	if !ok {
		metrics.MessagesDropped.WithLabelValues(metrics.ReasonNoRoom).Inc()
		d.logger.Debug("dropping message from session without room", log.FieldSession(senderID))
		return 0
	}

	target := registered
	if d.trustPayloadRoom {
		target = msg.Room
	} else if msg.Room != registered {
		metrics.MessagesDropped.WithLabelValues(metrics.ReasonRoomMismatch).Inc()
		d.logger.Debug("dropping message addressed to another room",
			log.FieldSession(senderID),
			log.FieldRoom(registered),
			zap.String("payloadRoom", msg.Room))
		return 0
	}

	ev := Event{Name: EventReceiveMessage, Data: msg}
	delivered := 0
	for _, id := range d.members.Members(target) {
		if id == senderID {
			continue
		}
		if d.deliver(id, ev) {
			delivered++
		}
	}
	return delivered
}

// BroadcastPresence sends count to every member of roomName, the session that
// triggered the change included.
func (d *Dispatcher) BroadcastPresence(roomName string, count int) int {
	ev := Event{Name: EventRoomUsers, Data: count}
	delivered := 0
	for _, id := range d.members.Members(roomName) {
		if d.deliver(id, ev) {
			delivered++
		}
	}
	return delivered
}

// Notify sends ev to one session.
func (d *Dispatcher) Notify(sessionID string, ev Event) bool {
	return d.deliver(sessionID, ev)
}

func (d *Dispatcher) deliver(sessionID string, ev Event) bool {
	if d.sender.Send(sessionID, ev) {
		metrics.Deliveries.WithLabelValues(ev.Name, metrics.ResultDelivered).Inc()
		return true
	}
	metrics.Deliveries.WithLabelValues(ev.Name, metrics.ResultFailed).Inc()
	d.logger.Debug("delivery failed", log.FieldSession(sessionID), zap.String("event", ev.Name))
	return false
}
