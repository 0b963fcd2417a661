package io

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/corvid-assistant/corvid/pkg/io/device"
	"github.com/corvid-assistant/corvid/pkg/io/registry"
)

// Publisher fans a pipeline Response out to a user's endpoints, per spec
// §3/§4.4: text deltas go to every live TextSink endpoint, audio frames go
// only to the most-recently-active live endpoint (an error if that
// endpoint is not an AudioSink), and events go to every live endpoint
// without a capability check.
type Publisher struct {
	reg registry.DeviceRegistry
}

func New(reg registry.DeviceRegistry) *Publisher {
	return &Publisher{reg: reg}
}

func (p *Publisher) SendTextDelta(ctx context.Context, userID, sessionID uuid.UUID, seq int, text string) error {
	eps, ok := p.reg.FetchTextFanoutEndpoints(userID)
	if !ok {
		return fmt.Errorf("no text-sink endpoints for user %s", userID)
	}
	var firstErr error
	for _, ep := range eps {
		if err := ep.SendTextDelta(sessionID, seq, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *Publisher) SendAudioFrame(ctx context.Context, userID, sessionID uuid.UUID, seq int, frame []byte) error {
	ep, ok := p.reg.SelectEndpointWithMRU(userID)
	if !ok || !ep.Caps().Accepts(device.EAudio) {
		return fmt.Errorf("no audio-sink endpoint for user %s", userID)
	}
	return ep.SendAudioFrame(sessionID, seq, frame)
}

func (p *Publisher) SendEvent(ctx context.Context, userID, sessionID uuid.UUID, name string, payload any) error {
	var firstErr error
	for _, ep := range p.reg.ListUserEndpoints(userID) {
		if ep.IsAlive() {
			if err := ep.SendEvent(sessionID, name, payload); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
