// Package websocket adapts a gorilla websocket connection to device.Endpoint.
package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/corvid-assistant/corvid/pkg/io/device"
)

type wsEndpoint struct {
	id     uuid.UUID
	client *websocket.Conn
	caps   device.Capabilities

	mu         sync.Mutex
	lastActive time.Time
	closed     bool
}

func New(client *websocket.Conn, caps device.Capabilities) device.Endpoint {
	return &wsEndpoint{
		id:         uuid.New(),
		client:     client,
		caps:       caps,
		lastActive: time.Now(),
	}
}

func (w *wsEndpoint) ID() device.EndpointID      { return device.EndpointID(w.id) }
func (w *wsEndpoint) Caps() device.Capabilities  { return w.caps }
func (w *wsEndpoint) Transport() device.Transport { return device.TransportWS }

func (w *wsEndpoint) Touch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastActive = time.Now()
}

func (w *wsEndpoint) LastActive() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActive
}

// IsAlive pings the peer; a write error (including on an already-closed
// socket) counts as dead rather than panicking the publisher.
func (w *wsEndpoint) IsAlive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return false
	}
	return w.client.WriteControl(websocket.PingMessage, nil, time.Now().Add(2*time.Second)) == nil
}

func (w *wsEndpoint) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return w.client.Close()
}

func (w *wsEndpoint) write(mt int, p []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return websocket.ErrCloseSent
	}
	w.lastActive = time.Now()
	return w.client.WriteMessage(mt, p)
}

func (w *wsEndpoint) SendAudioFrame(sessionID uuid.UUID, seq int, frame []byte) error {
	return w.write(websocket.BinaryMessage, frame)
}

func (w *wsEndpoint) SendEvent(sessionID uuid.UUID, name string, payload any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return websocket.ErrCloseSent
	}
	w.lastActive = time.Now()
	return w.client.WriteJSON(struct {
		Type      string    `json:"type"`
		Name      string    `json:"name"`
		SessionID uuid.UUID `json:"sessionId"`
		Payload   any       `json:"payload"`
	}{Type: "event", Name: name, SessionID: sessionID, Payload: payload})
}

func (w *wsEndpoint) SendTextDelta(sessionID uuid.UUID, seq int, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return websocket.ErrCloseSent
	}
	w.lastActive = time.Now()
	return w.client.WriteJSON(struct {
		Type      string    `json:"type"`
		SessionID uuid.UUID `json:"sessionId"`
		Sequence  int       `json:"sequence"`
		Text      string    `json:"text"`
	}{Type: "transcription_result", SessionID: sessionID, Sequence: seq, Text: text})
}
