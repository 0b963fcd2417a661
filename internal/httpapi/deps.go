// Package httpapi implements the spec §4.7 HTTP/WebSocket surface: the
// superset of coordinator operations plus the admin donation/config
// endpoints, grounded on the teacher's internal/server package (gin
// router, gorilla/websocket upgrader, a connection manager keyed by
// user/session).
package httpapi

import (
	"github.com/corvid-assistant/corvid/internal/config"
	"github.com/corvid-assistant/corvid/internal/coordinator"
	"github.com/corvid-assistant/corvid/internal/donation"
	"github.com/corvid-assistant/corvid/internal/pipeline"
	"github.com/corvid-assistant/corvid/internal/session"
	corvidio "github.com/corvid-assistant/corvid/pkg/io"
	"github.com/corvid-assistant/corvid/pkg/io/registry"
	"github.com/corvid-assistant/corvid/pkg/logger"
)

// Dependencies bundles everything a route handler closes over. Built once
// at startup (cmd/corvid) and shared by every request/connection, mirroring
// the teacher's Dependencies/RoutesManager split.
type Dependencies struct {
	Config *config.Settings
	Log    *logger.Logger

	Engine        *pipeline.Engine
	VoiceWorkflow pipeline.Workflow
	TextWorkflow  pipeline.Workflow

	ASR      *coordinator.ASR
	TTS      *coordinator.TTS
	Audio    *coordinator.Audio
	LLM      *coordinator.LLM
	WakeWord *coordinator.WakeWord

	Sessions  *session.Store
	Donations *donation.Store

	DeviceRegistry registry.DeviceRegistry
	Publisher      *corvidio.Publisher
}
