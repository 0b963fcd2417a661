// Package registry tracks the devices/endpoints a user currently has
// attached, so the pipeline engine can fan a Response out to whichever
// output targets accept its response type.
package registry

import (
	"github.com/google/uuid"

	"github.com/corvid-assistant/corvid/pkg/io/device"
)

type DeviceRegistry interface {
	UpsertDevice(userID uuid.UUID, d *device.Device) error
	RemoveDevice(userID uuid.UUID, deviceID uuid.UUID) error

	AttachEndpoint(userID uuid.UUID, deviceID uuid.UUID, ep device.Endpoint) error
	DetachEndpoint(userID uuid.UUID, deviceID uuid.UUID, epID device.EndpointID) error

	ListUserDevices(userID uuid.UUID) []*device.Device
	ListUserEndpoints(userID uuid.UUID) []device.Endpoint

	// SelectEndpointWithMRU returns the most-recently-active endpoint for
	// a user, used by the audio coordinator's single-stream output.
	SelectEndpointWithMRU(userID uuid.UUID) (device.Endpoint, bool)

	// FetchTextFanoutEndpoints returns every live endpoint whose
	// capability set includes TextSink, for broadcast-style text output.
	FetchTextFanoutEndpoints(userID uuid.UUID) ([]device.Endpoint, bool)
}
