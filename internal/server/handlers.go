// Package server exposes HTTP handlers, including WebSocket upgrades, health
// checks, the room listing and the built-in test page.
package server

import (
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tyrowin/roomrelay/internal/room"
	"github.com/Tyrowin/roomrelay/pkg/log"
)

func newUpgrader(policy *originPolicy) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     policy.checkOrigin,
	}
}

// WebSocketHandler upgrades the request, creates a Client with its own relay
// session and registers it with the hub, which starts the client's pumps.
func (s *Server) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("WebSocket upgrade failed", zap.String("addr", r.RemoteAddr), zap.Error(err))
		return
	}

	client := NewClient(conn, s.hub, r.RemoteAddr, s.cfg.MaxMessageSize)
	if err := s.hub.Register(client); err != nil {
		log.Warn("Rejecting connection", zap.String("addr", r.RemoteAddr), zap.Error(err))
		s.hub.relay.Disconnect(client.session)
		_ = conn.Close()
	}
}

// HealthHandler provides a simple health check endpoint that returns server status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "Room relay is running!")
}

type roomsResponse struct {
	Rooms []room.Info `json:"rooms"`
}

// RoomsHandler lists every room that currently has members.
func RoomsHandler(registry *room.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		resp := roomsResponse{Rooms: registry.Rooms()}
		if resp.Rooms == nil {
			resp.Rooms = []room.Info{}
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Warn("Error writing rooms response", zap.Error(err))
		}
	}
}

// TestPageHandler serves an HTML page for trying the relay from a browser:
// join a room, send messages and watch the presence count.
func TestPageHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, testPage); err != nil {
		log.Warn("Error writing HTML response", zap.Error(err))
	}
}

const testPage = `<!DOCTYPE html>
<html>
<head>
    <title>Room Relay Test</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        #messages { border: 1px solid #ccc; height: 300px; padding: 10px; overflow-y: scroll; margin: 10px 0; background-color: #f9f9f9; }
        input[type="text"] { width: 200px; padding: 5px; margin-right: 10px; }
        button { padding: 5px 15px; background-color: #007cba; color: white; border: none; cursor: pointer; }
        button:hover { background-color: #005a87; }
        .status { margin: 10px 0; padding: 5px; border-radius: 3px; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Room Relay Test</h1>

    <div id="status" class="status disconnected">Disconnected</div>

    <div>
        <input type="text" id="author" placeholder="Your name...">
        <input type="text" id="room" placeholder="Room...">
        <button onclick="join()">Join</button>
        <button onclick="leave()">Leave</button>
        <span>Members: <strong id="users">0</strong></span>
    </div>
    <div>
        <input type="text" id="messageInput" placeholder="Type a message...">
        <button onclick="sendMessage()">Send</button>
    </div>

    <div id="messages"></div>

    <script>
        const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
        const messagesDiv = document.getElementById('messages');
        const statusDiv = document.getElementById('status');

        function addLine(text, color) {
            const el = document.createElement('div');
            el.style.color = color;
            el.textContent = text;
            messagesDiv.appendChild(el);
            messagesDiv.scrollTop = messagesDiv.scrollHeight;
        }

        function emit(event, data) {
            ws.send(JSON.stringify({ event: event, data: data }));
        }

        ws.onopen = function() {
            statusDiv.textContent = 'Connected';
            statusDiv.className = 'status connected';
        };
        ws.onclose = function() {
            statusDiv.textContent = 'Disconnected';
            statusDiv.className = 'status disconnected';
        };
        ws.onmessage = function(event) {
            const frame = JSON.parse(event.data);
            if (frame.event === 'room_users') {
                document.getElementById('users').textContent = frame.data;
            } else if (frame.event === 'receive_message') {
                const m = frame.data;
                addLine('[' + m.time + '] ' + m.author + ': ' + m.message, 'green');
            }
        };

        function join() {
            const room = document.getElementById('room').value.trim();
            if (room) {
                emit('join_room', room);
                messagesDiv.innerHTML = '';
            }
        }

        function leave() {
            emit('leave_room');
            document.getElementById('users').textContent = '0';
        }

        function sendMessage() {
            const input = document.getElementById('messageInput');
            const text = input.value.trim();
            if (!text) {
                return;
            }
            const now = new Date();
            const msg = {
                room: document.getElementById('room').value.trim(),
                author: document.getElementById('author').value.trim(),
                message: text,
                time: now.getHours() + ':' + String(now.getMinutes()).padStart(2, '0')
            };
            emit('send_message', msg);
            addLine('[' + msg.time + '] You: ' + text, 'blue');
            input.value = '';
        }

        document.getElementById('messageInput').addEventListener('keypress', function(e) {
            if (e.key === 'Enter') {
                sendMessage();
            }
        });
    </script>
</body>
</html>`
