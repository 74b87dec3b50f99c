package stream

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apexdrift/simcore/pkg/core"
	"github.com/apexdrift/simcore/pkg/streaming"
)

// testServer accepts one WebSocket connection, acks session boundary
// messages and forwards everything it reads to received.
func testServer(t *testing.T) (*httptest.Server, chan streaming.Envelope) {
	t.Helper()
	received := make(chan streaming.Envelope, 64)
	upgrader := ws.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("secret") != "hunter2" {
			http.Error(w, "bad secret", http.StatusForbidden)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			received <- env

			if env.Type == streaming.TypeStartSession || env.Type == streaming.TypeEndSession {
				ack, _ := json.Marshal(streaming.AckMessage{Type: "ack", For: env.Type})
				if err := conn.WriteMessage(ws.TextMessage, ack); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, received
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestSessionLifecycleOverWebSocket(t *testing.T) {
	srv, received := testServer(t)

	s := New(Config{URL: wsURL(srv), Secret: "hunter2"}, nil)
	require.NoError(t, s.Connect())
	defer s.Close()

	require.NoError(t, s.StartSession(streaming.StartSessionPayload{
		Name:     "drift 20260830",
		Scenario: "drift",
		Vehicle:  "default",
	}))

	env := <-received
	assert.Equal(t, streaming.TypeStartSession, env.Type)
	var start streaming.StartSessionPayload
	require.NoError(t, json.Unmarshal(env.Payload, &start))
	assert.Equal(t, "drift", start.Scenario)

	require.NoError(t, s.SendFrame(core.Snapshot{Time: 1.5, SpeedKMH: 88}))
	env = waitEnvelope(t, received)
	assert.Equal(t, streaming.TypeFrame, env.Type)
	var frame streaming.FramePayload
	require.NoError(t, json.Unmarshal(env.Payload, &frame))
	assert.Equal(t, 88.0, frame.Snapshot.SpeedKMH)

	require.NoError(t, s.SendEvent("drift_bank", 4.2, 1200))
	env = waitEnvelope(t, received)
	assert.Equal(t, streaming.TypeEvent, env.Type)
	var ev streaming.EventPayload
	require.NoError(t, json.Unmarshal(env.Payload, &ev))
	assert.Equal(t, 1200.0, ev.Value)

	require.NoError(t, s.EndSession(10))
	env = waitEnvelope(t, received)
	assert.Equal(t, streaming.TypeEndSession, env.Type)
}

func TestStartSessionTimesOutWithoutAck(t *testing.T) {
	upgrader := ws.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	s := New(Config{URL: wsURL(srv), Secret: ""}, nil)
	require.NoError(t, s.Connect())
	defer s.Close()

	data, err := marshalEnvelope(streaming.TypeStartSession, streaming.StartSessionPayload{Name: "x"})
	require.NoError(t, err)
	err = s.conn.sendAndWait(data, streaming.TypeStartSession, 100*time.Millisecond)
	assert.Error(t, err)
}

func TestConnectFailsOnBadURL(t *testing.T) {
	s := New(Config{URL: "ws://127.0.0.1:1", Secret: ""}, nil)
	assert.Error(t, s.Connect())
}

func waitEnvelope(t *testing.T, ch chan streaming.Envelope) streaming.Envelope {
	t.Helper()
	select {
	case env := <-ch:
		return env
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
		return streaming.Envelope{}
	}
}
