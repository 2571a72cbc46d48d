// Package server assembles the registry, hub and HTTP server of one relay
// process.
package server

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"

	"github.com/Tyrowin/roomrelay/internal/relay"
	"github.com/Tyrowin/roomrelay/internal/room"
)

// Server owns the registry, hub and HTTP server of one relay process.
type Server struct {
	cfg      Config
	registry *room.Registry
	hub      *Hub
	upgrader websocket.Upgrader
	http     *http.Server
}

// New builds a Server from cfg. Passing nil uses NewConfig defaults.
func New(cfg *Config) *Server {
	if cfg == nil {
		cfg = NewConfig()
	}
	sanitized := cfg.sanitize()

	registry := room.NewRegistry()
	s := &Server{
		cfg:      sanitized,
		registry: registry,
		hub:      NewHub(registry, sanitized.SendBuffer, relay.WithPayloadRoomTrust(sanitized.TrustMessageRoom)),
		upgrader: newUpgrader(newOriginPolicy(sanitized.AllowedOrigins)),
	}
	s.http = CreateServer(sanitized.Port, SetupRoutes(s))
	return s
}

// Config returns the sanitized configuration the server runs with.
func (s *Server) Config() Config {
	return s.cfg
}

// Registry returns the room registry.
func (s *Server) Registry() *room.Registry {
	return s.registry
}

// Hub returns the connection hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler with all routes.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// StartHub starts the hub's event loop in its own goroutine. Call it before
// serving traffic.
func (s *Server) StartHub() {
	go s.hub.Run()
}

// ListenAndServe serves HTTP until Shutdown.
func (s *Server) ListenAndServe() error {
	return StartServer(s.http)
}

// Shutdown stops the HTTP listener, then closes every WebSocket connection
// and waits for the client goroutines.
func (s *Server) Shutdown() error {
	httpErr := ShutdownServer(s.http, s.cfg.ShutdownTimeout)
	hubErr := s.hub.Shutdown(s.cfg.ShutdownTimeout)
	return errors.CombineErrors(httpErr, hubErr)
}
