package service

import (
	"context"
	"fmt"

	"spacloud/internal/models"
)

// MonitoringService serves device and status reads from the in-memory
// registry and status cache maintained by the reconciler. It never talks to
// the cloud itself.
type MonitoringService struct {
	registry *DeviceRegistry
	cache    *StatusCache
}

func NewMonitoringService(registry *DeviceRegistry, cache *StatusCache) *MonitoringService {
	return &MonitoringService{registry: registry, cache: cache}
}

// ListDevices returns the devices currently bound to the cloud account.
func (s *MonitoringService) ListDevices(ctx context.Context) []models.Device {
	return s.registry.List()
}

func (s *MonitoringService) GetDevice(ctx context.Context, deviceID string) (models.Device, error) {
	d, ok := s.registry.Get(deviceID)
	if !ok {
		return models.Device{}, fmt.Errorf("device %q: %w", deviceID, ErrDeviceNotFound)
	}
	return d, nil
}

// DeviceStatus returns the cached status for a bound device. A bound device
// that has not produced an accepted snapshot yet yields nil without an error.
func (s *MonitoringService) DeviceStatus(ctx context.Context, deviceID string) (models.DeviceStatus, error) {
	if _, ok := s.registry.Get(deviceID); !ok {
		return nil, fmt.Errorf("device %q: %w", deviceID, ErrDeviceNotFound)
	}
	st, ok := s.cache.Read(deviceID)
	if !ok {
		return nil, nil
	}
	return st, nil
}

func (s *MonitoringService) Snapshot() ([]models.Device, map[string]models.DeviceStatus) {
	return s.registry.List(), s.cache.Snapshot()
}
