package relay

import (
	"go.uber.org/atomic"
)

// Session is the relay's view of one connection: an identifier fixed at
// connect time and whether the connection is still alive. The room a session
// sits in lives in the registry.
type Session struct {
	id           string
	disconnected atomic.Bool
}

func newSession(id string) *Session {
	return &Session{id: id}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Connected reports whether Disconnect has not run for this session yet.
func (s *Session) Connected() bool {
	return !s.disconnected.Load()
}

// markDisconnected flips the session to its terminal state. Only the first
// call returns true.
func (s *Session) markDisconnected() bool {
	return s.disconnected.CompareAndSwap(false, true)
}
