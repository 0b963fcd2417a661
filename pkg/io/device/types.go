// Package device models output targets: the things a Response can be fanned
// out to (a WebSocket client, a CLI terminal, a speaker, an MQTT topic).
package device

import (
	"time"

	"github.com/google/uuid"
)

type Transport string

const (
	TransportCLI  Transport = "cli"
	TransportWS   Transport = "ws"
	TransportMQTT Transport = "mqtt"
)

// OutputMessageType mirrors the pipeline's Response.response_type values
// that a given Endpoint is willing to sink.
type OutputMessageType int

const (
	EText OutputMessageType = iota
	EAudio
	EEvent
	ENotification
)

// Capabilities declares which response types an Endpoint can sink.
type Capabilities struct {
	AudioSink        bool
	TextSink         bool
	NotificationSink bool
}

// Accepts reports whether this endpoint's capability set includes the
// given response type, per spec §3 ("Response... routed by response_type
// to output targets whose capability set includes it").
func (c Capabilities) Accepts(t OutputMessageType) bool {
	switch t {
	case EAudio:
		return c.AudioSink
	case EText, EEvent:
		return c.TextSink
	case ENotification:
		return c.NotificationSink
	default:
		return false
	}
}

type EndpointID uuid.UUID

func (e EndpointID) String() string { return uuid.UUID(e).String() }

// Endpoint is one concrete output target owned by a Device.
type Endpoint interface {
	ID() EndpointID
	Caps() Capabilities
	Transport() Transport

	SendTextDelta(sessionID uuid.UUID, seq int, text string) error
	SendAudioFrame(sessionID uuid.UUID, seq int, frame []byte) error
	SendEvent(sessionID uuid.UUID, name string, payload any) error

	Touch()
	IsAlive() bool
	Close() error
	LastActive() time.Time
}

// Device groups the endpoints a single physical/logical client exposes
// (a phone might expose both a WS text channel and a local speaker).
type Device struct {
	UserID     uuid.UUID
	DeviceID   uuid.UUID
	SessionID  uuid.UUID
	Caps       Capabilities
	LastActive time.Time
	Endpoints  map[EndpointID]Endpoint
}
