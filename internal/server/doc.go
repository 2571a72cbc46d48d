// Package server implements the HTTP and WebSocket transport of the room relay.
//
// The transport owns every connection. It hands connect, join, send, leave and
// disconnect events to the relay and delivers the relay's outbound events
// back over the right sockets. Configuration, hub management, clients, routing
// and HTTP handlers live in separate files.
package server
