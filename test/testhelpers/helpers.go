// Package testhelpers provides common utilities for exercising the relay over
// real WebSocket connections in tests.
package testhelpers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/roomrelay/internal/relay"
	"github.com/Tyrowin/roomrelay/internal/server"
	"github.com/Tyrowin/roomrelay/pkg/log"
)

// TestOrigin is the origin every helper dials with.
const TestOrigin = "http://localhost:8080"

// Frame is a decoded relay frame.
type Frame struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StartRelay starts a relay with cfg behind an httptest server. Both are
// stopped when the test ends.
func StartRelay(t *testing.T, cfg *server.Config) (*server.Server, *httptest.Server) {
	t.Helper()
	if cfg == nil {
		cfg = server.NewConfig()
	}
	cfg.ShutdownTimeout = 2 * time.Second
	log.SetupTestLogger(t)

	srv := server.New(cfg)
	srv.StartHub()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Hub().Shutdown(2 * time.Second)
	})
	return srv, ts
}

// WebSocketURL converts an http:// test server URL to its ws:// endpoint.
func WebSocketURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
}

// ConnectWebSocket dials url with the test origin.
func ConnectWebSocket(url string, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}
	conn, resp, err := dialer.Dial(url, headers)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, resp, err
}

// MustConnect dials the relay behind ts and closes the socket at test end.
func MustConnect(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := ConnectWebSocket(WebSocketURL(ts.URL), TestOrigin)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// Emit writes one inbound event.
func Emit(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	frame := map[string]any{"event": event}
	if data != nil {
		frame["data"] = data
	}
	require.NoError(t, conn.WriteJSON(frame))
}

// Join emits join_room.
func Join(t *testing.T, conn *websocket.Conn, roomName string) {
	t.Helper()
	Emit(t, conn, relay.EventJoinRoom, roomName)
}

// ReadFrame reads the next frame, failing the test after timeout.
func ReadFrame(t *testing.T, conn *websocket.Conn, timeout time.Duration) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

// ExpectPresence reads the next frame and checks it is room_users with count.
func ExpectPresence(t *testing.T, conn *websocket.Conn, count int) {
	t.Helper()
	frame := ReadFrame(t, conn, 2*time.Second)
	require.Equal(t, relay.EventRoomUsers, frame.Event)
	var got int
	require.NoError(t, json.Unmarshal(frame.Data, &got))
	require.Equal(t, count, got)
}

// ExpectMessage reads the next frame and checks it is receive_message.
func ExpectMessage(t *testing.T, conn *websocket.Conn) relay.Message {
	t.Helper()
	frame := ReadFrame(t, conn, 2*time.Second)
	require.Equal(t, relay.EventReceiveMessage, frame.Event)
	var msg relay.Message
	require.NoError(t, json.Unmarshal(frame.Data, &msg))
	return msg
}

// ExpectNoFrame asserts nothing arrives within wait. The connection is not
// usable for reads afterwards.
func ExpectNoFrame(t *testing.T, conn *websocket.Conn, wait time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(wait)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame: %s", data)
}

// WaitFor polls cond until it holds or timeout elapses.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, timeout, 10*time.Millisecond)
}
