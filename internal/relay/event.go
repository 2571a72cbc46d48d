package relay

// Event names carried in the "event" field of every frame.
const (
	EventJoinRoom       = "join_room"
	EventSendMessage    = "send_message"
	EventLeaveRoom      = "leave_room"
	EventReceiveMessage = "receive_message"
	EventRoomUsers      = "room_users"
)

// Message is a chat line as the client sends it. The relay reads Room for
// routing and passes everything else through untouched.
type Message struct {
	Room   string `json:"room"`
	Author string `json:"author"`
	Body   string `json:"message"`
	Time   string `json:"time"`
}

// Event is one outbound frame: a name plus its payload.
type Event struct {
	Name string
	Data any
}

// Sender delivers an event to a single session. It reports false when the
// session is gone or cannot take more data; it must not block.
type Sender interface {
	Send(sessionID string, ev Event) bool
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(sessionID string, ev Event) bool

func (f SenderFunc) Send(sessionID string, ev Event) bool {
	return f(sessionID, ev)
}
