// Package server defines the JSON frames exchanged with clients and utility
// helpers shared by client and hub logic.
package server

import (
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/Tyrowin/roomrelay/internal/relay"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// inboundFrame is what a client sends: an event name and its payload.
type inboundFrame struct {
	Event string              `json:"event"`
	Data  jsoniter.RawMessage `json:"data,omitempty"`
}

// outboundFrame is what the relay sends back.
type outboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func encodeEvent(ev relay.Event) ([]byte, error) {
	return json.Marshal(outboundFrame{Event: ev.Name, Data: ev.Data})
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
