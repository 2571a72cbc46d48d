package room

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinReturnsFreshCount(t *testing.T) {
	r := NewRegistry()

	count, _, moved := r.Join("a", "room1")
	assert.Equal(t, 1, count)
	assert.False(t, moved)
	assert.Equal(t, 1, r.MemberCount("room1"))

	count, _, _ = r.Join("b", "room1")
	assert.Equal(t, 2, count)
	assert.Equal(t, 2, r.MemberCount("room1"))

	roomName, ok := r.RoomOf("b")
	require.True(t, ok)
	assert.Equal(t, "room1", roomName)
	assert.ElementsMatch(t, []string{"a", "b"}, r.Members("room1"))
}

func TestUnknownLookupsAreEmpty(t *testing.T) {
	r := NewRegistry()

	assert.Zero(t, r.MemberCount("nowhere"))
	assert.Empty(t, r.Members("nowhere"))
	_, ok := r.RoomOf("ghost")
	assert.False(t, ok)

	_, ok = r.Leave("ghost")
	assert.False(t, ok)
	_, ok = r.Disconnect("ghost")
	assert.False(t, ok)
}

func TestLeaveIsIdempotent(t *testing.T) {
	r := NewRegistry()
	r.Join("a", "room1")
	r.Join("b", "room1")

	dep, ok := r.Leave("b")
	require.True(t, ok)
	assert.Equal(t, Departure{Room: "room1", Count: 1}, dep)

	_, ok = r.Leave("b")
	assert.False(t, ok)
	assert.Equal(t, 1, r.MemberCount("room1"))
}

func TestDisconnectTwice(t *testing.T) {
	r := NewRegistry()
	r.Join("a", "room1")

	dep, ok := r.Disconnect("a")
	require.True(t, ok)
	assert.Equal(t, Departure{Room: "room1", Count: 0}, dep)

	_, ok = r.Disconnect("a")
	assert.False(t, ok)
	_, ok = r.RoomOf("a")
	assert.False(t, ok)
	assert.Zero(t, r.Sessions())
}

func TestEmptyRoomsArePruned(t *testing.T) {
	r := NewRegistry()
	r.Join("a", "short-lived")
	r.Leave("a")

	assert.Empty(t, r.Rooms())
	assert.Empty(t, r.occupants)
}

func TestRoomNamesAreNotNormalized(t *testing.T) {
	r := NewRegistry()
	r.Join("a", "Lobby")
	r.Join("b", "lobby")
	r.Join("c", "123")

	assert.Equal(t, 1, r.MemberCount("Lobby"))
	assert.Equal(t, 1, r.MemberCount("lobby"))
	assert.Zero(t, r.MemberCount("456"))
	assert.Equal(t, []Info{
		{Name: "123", Members: 1},
		{Name: "Lobby", Members: 1},
		{Name: "lobby", Members: 1},
	}, r.Rooms())
}

func TestRejoinMovesSession(t *testing.T) {
	r := NewRegistry()
	r.Join("a", "room1")
	r.Join("b", "room1")

	count, prev, moved := r.Join("a", "room2")
	assert.Equal(t, 1, count)
	require.True(t, moved)
	assert.Equal(t, Departure{Room: "room1", Count: 1}, prev)
	assert.Equal(t, 1, r.MemberCount("room1"))
	assert.ElementsMatch(t, []string{"b"}, r.Members("room1"))
}

func TestRejoinSameRoomIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Join("a", "room1")

	count, _, moved := r.Join("a", "room1")
	assert.Equal(t, 1, count)
	assert.False(t, moved)
	assert.Equal(t, 1, r.Sessions())
}

// Replays random Join/Leave/Disconnect sequences against a plain model.
func TestCountMatchesModel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	r := NewRegistry()
	model := map[string]string{}
	rooms := []string{"x", "y", "z"}

	for i := 0; i < 2000; i++ {
		id := fmt.Sprintf("s%d", rng.Intn(20))
		switch rng.Intn(3) {
		case 0:
			roomName := rooms[rng.Intn(len(rooms))]
			r.Join(id, roomName)
			model[id] = roomName
		case 1:
			r.Leave(id)
			delete(model, id)
		default:
			r.Disconnect(id)
			delete(model, id)
		}

		for _, roomName := range rooms {
			want := 0
			for _, v := range model {
				if v == roomName {
					want++
				}
			}
			require.Equal(t, want, r.MemberCount(roomName), "step %d room %s", i, roomName)
		}
	}
}

func TestConcurrentJoinsOnOneRoom(t *testing.T) {
	r := NewRegistry()
	const n = 200

	var wg sync.WaitGroup
	seen := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i], _, _ = r.Join(fmt.Sprintf("s%d", i), "busy")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, n, r.MemberCount("busy"))
	// Every join saw a distinct count, so no two mutations raced.
	assert.ElementsMatch(t, seq(1, n), seen)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Disconnect(fmt.Sprintf("s%d", i))
		}(i)
	}
	wg.Wait()
	assert.Zero(t, r.MemberCount("busy"))
	assert.Empty(t, r.Rooms())
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}
