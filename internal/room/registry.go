// Package room keeps the membership index of the relay: which session sits
// in which room, and who is in each room.
//
// Rooms have no representation of their own. A room exists while at least one
// session is associated with its name and disappears from the index the moment
// its last member leaves.
package room

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Departure describes a room a session just left and the room's size after
// the removal.
type Departure struct {
	Room  string
	Count int
}

// Info is a point-in-time view of one room.
type Info struct {
	Name    string `json:"name"`
	Members int    `json:"members"`
}

// Registry is the single owner of the session -> room association. It holds
// session identifiers only, never connections.
type Registry struct {
	mu        sync.RWMutex
	sessions  map[string]string
	occupants map[string]map[string]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions:  make(map[string]string),
		occupants: make(map[string]map[string]struct{}),
	}
}

// Join associates sessionID with roomName and returns the room's new size.
//
// A session holds at most one room. When it already sits in a different room
// it is removed from that room first and the departure is returned with
// moved set, so the caller can tell the old room. Joining the room the session
// is already in changes nothing.
func (r *Registry) Join(sessionID, roomName string) (count int, prev Departure, moved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[sessionID]; ok {
		if current == roomName {
			return len(r.occupants[roomName]), Departure{}, false
		}
		prev, moved = r.removeLocked(sessionID), true
	}

	members, ok := r.occupants[roomName]
	if !ok {
		members = make(map[string]struct{})
		r.occupants[roomName] = members
	}
	members[sessionID] = struct{}{}
	r.sessions[sessionID] = roomName
	return len(members), prev, moved
}

// Leave drops the session's association. The second result is false when the
// session was not in any room.
func (r *Registry) Leave(sessionID string) (Departure, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[sessionID]; !ok {
		return Departure{}, false
	}
	return r.removeLocked(sessionID), true
}

// Disconnect forgets sessionID entirely. It is safe for identifiers that never
// joined and for repeated calls.
func (r *Registry) Disconnect(sessionID string) (Departure, bool) {
	// The registry keeps nothing about a session besides its room, so this
	// is a leave.
	return r.Leave(sessionID)
}

// removeLocked expects r.mu held and sessionID present.
func (r *Registry) removeLocked(sessionID string) Departure {
	roomName := r.sessions[sessionID]
	delete(r.sessions, sessionID)

	members := r.occupants[roomName]
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.occupants, roomName)
	}
	return Departure{Room: roomName, Count: len(members)}
}

// MemberCount returns the number of sessions in roomName, zero for rooms
// nobody is in.
func (r *Registry) MemberCount(roomName string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.occupants[roomName])
}

// RoomOf returns the room sessionID is in.
func (r *Registry) RoomOf(sessionID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomName, ok := r.sessions[sessionID]
	return roomName, ok
}

// Members returns a snapshot of the session identifiers in roomName.
func (r *Registry) Members(roomName string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.occupants[roomName])
}

// Rooms returns every non-empty room sorted by name.
func (r *Registry) Rooms() []Info {
	r.mu.RLock()
	rooms := lo.MapToSlice(r.occupants, func(name string, members map[string]struct{}) Info {
		return Info{Name: name, Members: len(members)}
	})
	r.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms
}

// Sessions returns how many sessions currently hold a room.
func (r *Registry) Sessions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RoomCount returns the number of non-empty rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.occupants)
}
