// Package memoryregistry is the in-memory DeviceRegistry implementation.
package memoryregistry

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/corvid-assistant/corvid/pkg/io/device"
	"github.com/corvid-assistant/corvid/pkg/io/registry"
)

type mmrRegistry struct {
	mu    sync.RWMutex
	dvMap map[uuid.UUID]map[uuid.UUID]*device.Device
}

func New() registry.DeviceRegistry {
	return &mmrRegistry{
		dvMap: make(map[uuid.UUID]map[uuid.UUID]*device.Device),
	}
}

func (m *mmrRegistry) UpsertDevice(userID uuid.UUID, d *device.Device) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dvMap[userID] == nil {
		m.dvMap[userID] = make(map[uuid.UUID]*device.Device)
	}
	if d.Endpoints == nil {
		d.Endpoints = make(map[device.EndpointID]device.Endpoint)
	}
	d.LastActive = time.Now()
	m.dvMap[userID][d.DeviceID] = d
	return nil
}

func (m *mmrRegistry) RemoveDevice(userID uuid.UUID, deviceID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	userMap, ok := m.dvMap[userID]
	if !ok {
		return fmt.Errorf("no devices for user %s", userID)
	}
	d, ok := userMap[deviceID]
	if !ok {
		return fmt.Errorf("device %s not found", deviceID)
	}
	for _, ep := range d.Endpoints {
		_ = ep.Close()
	}
	delete(userMap, deviceID)
	return nil
}

func (m *mmrRegistry) AttachEndpoint(userID uuid.UUID, deviceID uuid.UUID, ep device.Endpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	userMap, ok := m.dvMap[userID]
	if !ok {
		return fmt.Errorf("no devices for user %s", userID)
	}
	d, ok := userMap[deviceID]
	if !ok {
		return fmt.Errorf("device %s not found", deviceID)
	}
	if d.Endpoints == nil {
		d.Endpoints = make(map[device.EndpointID]device.Endpoint)
	}
	d.Endpoints[ep.ID()] = ep
	return nil
}

func (m *mmrRegistry) DetachEndpoint(userID uuid.UUID, deviceID uuid.UUID, epID device.EndpointID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	userMap, ok := m.dvMap[userID]
	if !ok {
		return fmt.Errorf("no devices for user %s", userID)
	}
	d, ok := userMap[deviceID]
	if !ok {
		return fmt.Errorf("device %s not found", deviceID)
	}
	delete(d.Endpoints, epID)
	return nil
}

func (m *mmrRegistry) ListUserDevices(userID uuid.UUID) []*device.Device {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userMap, ok := m.dvMap[userID]
	if !ok {
		return nil
	}
	return slices.Collect(maps.Values(userMap))
}

func (m *mmrRegistry) ListUserEndpoints(userID uuid.UUID) []device.Endpoint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userMap, ok := m.dvMap[userID]
	if !ok {
		return nil
	}
	eps := make([]device.Endpoint, 0)
	for _, d := range userMap {
		eps = append(eps, slices.Collect(maps.Values(d.Endpoints))...)
	}
	return eps
}

// SelectEndpointWithMRU picks the most-recently-active device, then its
// most-recently-active endpoint.
// todo: efficiency: a rebalancing tree instead of a full sort per call
func (m *mmrRegistry) SelectEndpointWithMRU(userID uuid.UUID) (device.Endpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userMap, ok := m.dvMap[userID]
	if !ok {
		return nil, false
	}
	devices := slices.SortedFunc(maps.Values(userMap), func(a, b *device.Device) int {
		return b.LastActive.Compare(a.LastActive)
	})
	for _, d := range devices {
		eps := slices.SortedFunc(maps.Values(d.Endpoints), func(a, b device.Endpoint) int {
			return b.LastActive().Compare(a.LastActive())
		})
		for _, ep := range eps {
			if ep.IsAlive() {
				return ep, true
			}
		}
	}
	return nil, false
}

func (m *mmrRegistry) FetchTextFanoutEndpoints(userID uuid.UUID) ([]device.Endpoint, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	userMap, ok := m.dvMap[userID]
	if !ok {
		return nil, false
	}
	out := make([]device.Endpoint, 0)
	for _, d := range userMap {
		for _, ep := range d.Endpoints {
			if ep.Caps().TextSink && ep.IsAlive() {
				out = append(out, ep)
			}
		}
	}
	return out, len(out) > 0
}
