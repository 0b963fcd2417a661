package httpapi

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/corvid-assistant/corvid/internal/pipeline"
	"github.com/corvid-assistant/corvid/internal/session"
	"github.com/corvid-assistant/corvid/pkg/io/device"
	wsdevice "github.com/corvid-assistant/corvid/pkg/io/device/websocket"
	audioring "github.com/corvid-assistant/corvid/pkg/io/stt/audioRing"
)

// wsMessageType mirrors the teacher's routes.go WSMessage discriminator;
// unknown types are rejected rather than ignored (spec §6 WS contract).
type wsMessageType string

const (
	wsText    wsMessageType = "text"
	wsControl wsMessageType = "control"
)

type wsEnvelope struct {
	Type wsMessageType `json:"type"`
}

type wsTextMessage struct {
	Type wsMessageType `json:"type"`
	Text string        `json:"text"`
}

type wsControlMessage struct {
	Type   wsMessageType `json:"type"`
	Signal string        `json:"signal"`
}

// wsConnection is the per-socket state, grounded on the teacher's
// UserConnection: identity plus a pre-ASR ring buffer that accumulates
// binary frames until a control signal says the clip is complete. Unlike
// the teacher's continuous VSS/VAD capture, this is push-to-talk/explicit-
// clip: the capture stage's own contract allows "the caller's posted
// clip, for web/API sources" as an alternative to continuous wake-word
// triggered capture, so no continuous VAD segmentation is reimplemented
// here.
type wsConnection struct {
	userID      uuid.UUID
	deviceID    uuid.UUID
	deviceSess  uuid.UUID
	sessionID   string

	conn *websocket.Conn
	ring audioring.AudioRingBuffer

	sampleRate int32
	channels   int16
}

func newWSConnection(conn *websocket.Conn) *wsConnection {
	return &wsConnection{
		userID:     uuid.New(),
		deviceID:   uuid.New(),
		deviceSess: uuid.New(),
		sessionID:  session.NewSessionID(),
		conn:       conn,
		ring:       audioring.New(1024 * 1024),
		sampleRate: 16000,
		channels:   1,
	}
}

// handleWebSocket implements spec §4.7 GET /ws: a single socket carrying
// both text and audio frames, matching the teacher's combined endpoint.
func handleWebSocket(deps Dependencies) gin.HandlerFunc {
	return serveConnection(deps, device.Capabilities{AudioSink: true, TextSink: true})
}

// handleTextWebSocket implements GET /ws/text: a text-only connection.
func handleTextWebSocket(deps Dependencies) gin.HandlerFunc {
	return serveConnection(deps, device.Capabilities{TextSink: true})
}

// handleAudioWebSocket implements GET /ws/audio: an audio-only connection.
func handleAudioWebSocket(deps Dependencies) gin.HandlerFunc {
	return serveConnection(deps, device.Capabilities{AudioSink: true})
}

func serveConnection(deps Dependencies, caps device.Capabilities) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			deps.Log.With("error", err).Warnw("ws upgrade failed")
			return
		}
		defer conn.Close()

		wc := newWSConnection(conn)
		ctx := context.Background()

		ep := wsdevice.New(conn, caps)
		d := &device.Device{
			UserID:     wc.userID,
			DeviceID:   wc.deviceID,
			SessionID:  wc.deviceSess,
			Caps:       caps,
			LastActive: time.Now(),
			Endpoints:  map[device.EndpointID]device.Endpoint{ep.ID(): ep},
		}
		if err := deps.DeviceRegistry.UpsertDevice(wc.userID, d); err != nil {
			deps.Log.With("error", err).Warnw("failed to register ws device")
			return
		}
		defer deps.DeviceRegistry.RemoveDevice(wc.userID, wc.deviceID)

		deps.Log.Infow("ws connection opened", "session_id", wc.sessionID, "user_id", wc.userID)

		for {
			mt, raw, err := conn.ReadMessage()
			if err != nil {
				deps.Log.Infow("ws connection closed", "session_id", wc.sessionID)
				return
			}

			switch mt {
			case websocket.TextMessage:
				handleWSTextFrame(ctx, deps, wc, raw)
			case websocket.BinaryMessage:
				handleWSBinaryFrame(deps, wc, raw)
			}
		}
	}
}

func handleWSTextFrame(ctx context.Context, deps Dependencies, wc *wsConnection, raw []byte) {
	var envelope wsEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		wc.conn.WriteJSON(gin.H{"type": "error", "message": "malformed frame"})
		return
	}

	switch envelope.Type {
	case wsText:
		var msg wsTextMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			wc.conn.WriteJSON(gin.H{"type": "error", "message": "malformed text frame"})
			return
		}
		runTextRequest(ctx, deps, wc, msg.Text)

	case wsControl:
		var msg wsControlMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			wc.conn.WriteJSON(gin.H{"type": "error", "message": "malformed control frame"})
			return
		}
		if msg.Signal == "clip_end" {
			flushAudioClip(ctx, deps, wc)
		}

	default:
		wc.conn.WriteJSON(gin.H{"type": "error", "message": "unknown frame type"})
	}
}

// handleWSBinaryFrame mirrors the teacher's handleBinaryMessage wire
// format (sampleRate/channels header then PCM), enqueuing into the
// per-connection ring buffer rather than acting on each frame
// individually.
func handleWSBinaryFrame(deps Dependencies, wc *wsConnection, raw []byte) {
	if len(raw) < 8 {
		return
	}
	input := audioring.AudioInput{
		Data:       append([]byte(nil), raw[8:]...),
		Timestamp:  time.Now(),
		SampleRate: wc.sampleRate,
		Channels:   wc.channels,
	}
	if err := wc.ring.Enqueue(input); err != nil {
		deps.Log.With("error", err).Warnw("audio ring enqueue failed")
	}
}

// flushAudioClip drains the ring buffer into one utterance and runs it
// through the voice workflow with wake gating pre-satisfied, since the
// client's control signal is itself the trigger (push-to-talk).
func flushAudioClip(ctx context.Context, deps Dependencies, wc *wsConnection) {
	var clip []byte
	for {
		chunk, ok := wc.ring.Dequeue()
		if !ok {
			break
		}
		clip = append(clip, chunk.Data...)
	}
	if len(clip) == 0 {
		return
	}

	rc := pipeline.NewRequestContext(uuid.NewString(), pipeline.SourceWS, "", wc.sessionID)
	rc.AudioIn = clip
	rc.Metadata["wake_confirmed"] = true

	deps.Engine.Run(ctx, deps.VoiceWorkflow, rc)

	wc.conn.WriteJSON(gin.H{
		"type": "transcription_result",
		"text": rc.FinalText,
	})
	if rc.Response.Text != "" {
		wc.conn.WriteJSON(gin.H{
			"type": "response",
			"text": rc.Response.Text,
		})
	}
}

func runTextRequest(ctx context.Context, deps Dependencies, wc *wsConnection, text string) {
	rc := pipeline.NewRequestContext(uuid.NewString(), pipeline.SourceWS, "", wc.sessionID)
	rc.FinalText = text

	resp := deps.Engine.Run(ctx, deps.TextWorkflow, rc)
	wc.conn.WriteJSON(gin.H{
		"type": "response",
		"text": resp.Text,
	})
}
