// Package stream pushes session telemetry to a spectator server over
// WebSocket. Frames are fire-and-forget; session boundaries wait for a
// server acknowledgement.
package stream

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/apexdrift/simcore/internal/events"
	"github.com/apexdrift/simcore/pkg/core"
	"github.com/apexdrift/simcore/pkg/streaming"
)

// Config holds streamer configuration.
type Config struct {
	URL    string
	Secret string
}

// Streamer streams live session data to a spectator server.
type Streamer struct {
	conn *connection
	cfg  Config
}

// New creates a streamer. Call Connect before starting a session.
func New(cfg Config, logger *slog.Logger) *Streamer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Streamer{
		conn: newConnection(logger),
		cfg:  cfg,
	}
}

// Connect dials the spectator server.
func (s *Streamer) Connect() error {
	return s.conn.dial(s.cfg.URL, s.cfg.Secret)
}

// Close disconnects from the spectator server.
func (s *Streamer) Close() error {
	return s.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (s *Streamer) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	s.conn.send(data)
	return nil
}

// StartSession announces the session and waits for a server ack.
func (s *Streamer) StartSession(p streaming.StartSessionPayload) error {
	data, err := marshalEnvelope(streaming.TypeStartSession, p)
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	s.conn.mu.Lock()
	s.conn.cachedStartMsg = data
	s.conn.mu.Unlock()

	return s.conn.sendAndWait(data, streaming.TypeStartSession, ackTimeout)
}

// EndSession sends end_session and waits for a server ack.
func (s *Streamer) EndSession(duration float64) error {
	data, err := marshalEnvelope(streaming.TypeEndSession, streaming.EndSessionPayload{Duration: duration})
	if err != nil {
		return err
	}
	err = s.conn.sendAndWait(data, streaming.TypeEndSession, ackTimeout)

	// Clear cached state regardless of error.
	s.conn.mu.Lock()
	s.conn.cachedStartMsg = nil
	s.conn.mu.Unlock()

	return err
}

// SendFrame streams one snapshot (fire-and-forget).
func (s *Streamer) SendFrame(snap core.Snapshot) error {
	return s.sendEnvelope(streaming.TypeFrame, streaming.FramePayload{Snapshot: snap})
}

// SendEvent streams one discrete event (fire-and-forget).
func (s *Streamer) SendEvent(name string, simTime, value float64) error {
	return s.sendEnvelope(streaming.TypeEvent, streaming.EventPayload{
		Name:    name,
		SimTime: simTime,
		Value:   value,
	})
}

// Attach subscribes the streamer to the simulation event stream so that
// collisions and banked drifts reach spectators as they happen.
func (s *Streamer) Attach(d *events.Dispatcher) {
	d.Subscribe(events.Collision, func(e events.Event) error {
		ce, ok := e.Payload.(core.CollisionEvent)
		if !ok {
			return fmt.Errorf("unexpected collision payload %T", e.Payload)
		}
		return s.SendEvent(e.Name, e.SimTime, ce.ImpactMagnitude)
	})
	d.Subscribe(events.DriftBank, func(e events.Event) error {
		banked, ok := e.Payload.(float64)
		if !ok {
			return fmt.Errorf("unexpected bank payload %T", e.Payload)
		}
		return s.SendEvent(e.Name, e.SimTime, banked)
	})
}
