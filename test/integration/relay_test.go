// Package integration exercises the relay end to end over real WebSocket
// connections: joining rooms, relaying messages and presence counts.
package integration

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomrelay/internal/relay"
	"github.com/Tyrowin/roomrelay/internal/server"
	"github.com/Tyrowin/roomrelay/test/testhelpers"
)

// TestTwoMemberConversation walks two clients through join, chat, leave and
// disconnect and checks every frame each side sees.
func TestTwoMemberConversation(t *testing.T) {
	srv, ts := testhelpers.StartRelay(t, nil)
	registry := srv.Registry()

	alice := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, alice, "room1")
	testhelpers.ExpectPresence(t, alice, 1)

	bob := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, bob, "room1")
	testhelpers.ExpectPresence(t, alice, 2)
	testhelpers.ExpectPresence(t, bob, 2)

	sent := relay.Message{Room: "room1", Author: "alice", Body: "hi", Time: "10:42"}
	testhelpers.Emit(t, alice, relay.EventSendMessage, sent)
	assert.Equal(t, sent, testhelpers.ExpectMessage(t, bob))

	// Alice's next frame is the presence update, not an echo of her message.
	testhelpers.Emit(t, bob, relay.EventLeaveRoom, nil)
	testhelpers.ExpectPresence(t, alice, 1)
	testhelpers.ExpectPresence(t, bob, 1)
	assert.Equal(t, 1, registry.MemberCount("room1"))

	require.NoError(t, alice.Close())
	testhelpers.WaitFor(t, 2*time.Second, func() bool {
		return registry.MemberCount("room1") == 0
	})
	assert.Empty(t, registry.Rooms())
}

// TestRoomsAreIndependent checks that traffic in one room never reaches
// another.
func TestRoomsAreIndependent(t *testing.T) {
	srv, ts := testhelpers.StartRelay(t, nil)

	a := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, a, "123")
	testhelpers.ExpectPresence(t, a, 1)

	b := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, b, "123")
	testhelpers.ExpectPresence(t, a, 2)
	testhelpers.ExpectPresence(t, b, 2)

	c := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, c, "456")
	testhelpers.ExpectPresence(t, c, 1)

	assert.Equal(t, 2, srv.Registry().MemberCount("123"))
	assert.Equal(t, 1, srv.Registry().MemberCount("456"))

	testhelpers.Emit(t, a, relay.EventSendMessage, relay.Message{Room: "123", Author: "a", Body: "only 123"})
	assert.Equal(t, "only 123", testhelpers.ExpectMessage(t, b).Body)
	testhelpers.ExpectNoFrame(t, c, 200*time.Millisecond)
}

// TestDropWithoutLeaveUpdatesPresence closes a socket without leave_room and
// expects the remaining member to see the count fall.
func TestDropWithoutLeaveUpdatesPresence(t *testing.T) {
	srv, ts := testhelpers.StartRelay(t, nil)

	a := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, a, "lobby")
	testhelpers.ExpectPresence(t, a, 1)

	b := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, b, "lobby")
	testhelpers.ExpectPresence(t, a, 2)
	testhelpers.ExpectPresence(t, b, 2)

	require.NoError(t, b.Close())
	testhelpers.ExpectPresence(t, a, 1)

	testhelpers.WaitFor(t, 2*time.Second, func() bool {
		return srv.Hub().ClientCount() == 1
	})
}

// TestRejoinMovesBetweenRooms switches rooms without leaving first.
func TestRejoinMovesBetweenRooms(t *testing.T) {
	srv, ts := testhelpers.StartRelay(t, nil)

	a := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, a, "red")
	testhelpers.ExpectPresence(t, a, 1)

	b := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, b, "red")
	testhelpers.ExpectPresence(t, a, 2)
	testhelpers.ExpectPresence(t, b, 2)

	testhelpers.Join(t, b, "blue")
	testhelpers.ExpectPresence(t, a, 1)
	testhelpers.ExpectPresence(t, b, 1)

	assert.Equal(t, 1, srv.Registry().MemberCount("red"))
	assert.Equal(t, 1, srv.Registry().MemberCount("blue"))
}

// TestTrustedPayloadRoom runs the relay with payload room trust enabled, where
// a member of one room can address another.
func TestTrustedPayloadRoom(t *testing.T) {
	cfg := server.NewConfig()
	cfg.TrustMessageRoom = true
	_, ts := testhelpers.StartRelay(t, cfg)

	a := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, a, "room1")
	testhelpers.ExpectPresence(t, a, 1)

	c := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, c, "room2")
	testhelpers.ExpectPresence(t, c, 1)

	testhelpers.Emit(t, a, relay.EventSendMessage, relay.Message{Room: "room2", Author: "a", Body: "over here"})
	assert.Equal(t, "over here", testhelpers.ExpectMessage(t, c).Body)
}

// TestStrictPayloadRoom is the default: a payload naming another room is
// dropped.
func TestStrictPayloadRoom(t *testing.T) {
	_, ts := testhelpers.StartRelay(t, nil)

	a := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, a, "room1")
	testhelpers.ExpectPresence(t, a, 1)

	c := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, c, "room2")
	testhelpers.ExpectPresence(t, c, 1)

	testhelpers.Emit(t, a, relay.EventSendMessage, relay.Message{Room: "room2", Author: "a", Body: "over here"})
	testhelpers.ExpectNoFrame(t, c, 200*time.Millisecond)
}

// TestRoomListing reads the /rooms endpoint while clients are connected.
func TestRoomListing(t *testing.T) {
	_, ts := testhelpers.StartRelay(t, nil)

	a := testhelpers.MustConnect(t, ts)
	testhelpers.Join(t, a, "lobby")
	testhelpers.ExpectPresence(t, a, 1)

	resp, err := http.Get(ts.URL + "/rooms")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"rooms":[{"name":"lobby","members":1}]}`, string(body))
}
