// Package streaming defines the wire protocol for pushing live session
// data to a spectator or dashboard server over WebSocket.
package streaming

import (
	"encoding/json"

	"github.com/apexdrift/simcore/pkg/core"
)

// Message type constants matching the streaming protocol.
const (
	TypeStartSession = "start_session"
	TypeEndSession   = "end_session"
	TypeFrame        = "frame"
	TypeEvent        = "event"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// StartSessionPayload announces a new session to the server.
type StartSessionPayload struct {
	Name     string `json:"name"`
	Scenario string `json:"scenario"`
	Vehicle  string `json:"vehicle"`
}

// FramePayload carries one snapshot of the vehicle state.
type FramePayload struct {
	Snapshot core.Snapshot `json:"snapshot"`
}

// EventPayload carries one discrete simulation event.
type EventPayload struct {
	Name    string  `json:"name"`
	SimTime float64 `json:"simTime"`
	Value   float64 `json:"value"`
}

// EndSessionPayload closes the session with its final duration.
type EndSessionPayload struct {
	Duration float64 `json:"duration"`
}
