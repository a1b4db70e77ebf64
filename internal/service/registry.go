package service

import (
	"sort"
	"sync"

	"spacloud/internal/models"
)

// DeviceRegistry holds the devices currently bound to the cloud account. The
// reconciler replaces its contents after each bindings refresh; readers see
// either the old or the new set, never a mix.
type DeviceRegistry struct {
	mu      sync.RWMutex
	devices map[string]models.Device
}

func NewDeviceRegistry() *DeviceRegistry {
	return &DeviceRegistry{devices: make(map[string]models.Device)}
}

func (r *DeviceRegistry) ReplaceAll(devices []models.Device) {
	next := make(map[string]models.Device, len(devices))
	for _, d := range devices {
		next[d.ID] = d
	}
	r.mu.Lock()
	r.devices = next
	r.mu.Unlock()
}

func (r *DeviceRegistry) Get(deviceID string) (models.Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[deviceID]
	return d, ok
}

// List returns the bound devices ordered by device ID.
func (r *DeviceRegistry) List() []models.Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Device, 0, len(r.devices))
	for _, d := range r.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IDs returns the set of bound device IDs, shaped for StatusCache.Retain.
func (r *DeviceRegistry) IDs() map[string]struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]struct{}, len(r.devices))
	for id := range r.devices {
		out[id] = struct{}{}
	}
	return out
}
