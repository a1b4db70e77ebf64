package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spacloud/internal/gizwits"
	"spacloud/internal/metrics"
	"spacloud/internal/models"
	"spacloud/internal/repository"
)

var ErrInvalidTemperature = errors.New("invalid target temperature: must be greater than 0")

// SpaService issues control commands for both spa generations. Every command
// follows the same shape: check the cached status first so an unknown or
// mismatched device fails before any network traffic, post the attribute
// write to the cloud, then fold the primary and derived effects into the
// cache stamped with the local wall clock. A failed post leaves the cache
// untouched.
type SpaService struct {
	cache     *StatusCache
	cloud     gizwits.Gateway
	eventRepo repository.EventRepo
}

func NewSpaService(cache *StatusCache, cloud gizwits.Gateway, eventRepo repository.EventRepo) *SpaService {
	return &SpaService{cache: cache, cloud: cloud, eventRepo: eventRepo}
}

func (s *SpaService) SetPower(ctx context.Context, deviceID string, on bool) error {
	return s.command(ctx, "spa_power", deviceID, spaWrite{field: spaPower, on: on})
}

func (s *SpaService) SetHeat(ctx context.Context, deviceID string, on bool) error {
	return s.command(ctx, "spa_heat", deviceID, spaWrite{field: spaHeat, on: on})
}

func (s *SpaService) SetFilter(ctx context.Context, deviceID string, on bool) error {
	return s.command(ctx, "spa_filter", deviceID, spaWrite{field: spaFilter, on: on})
}

func (s *SpaService) SetBubbles(ctx context.Context, deviceID string, on bool) error {
	return s.command(ctx, "spa_bubbles", deviceID, spaWrite{field: spaBubbles, on: on})
}

func (s *SpaService) SetLocked(ctx context.Context, deviceID string, locked bool) error {
	return s.command(ctx, "spa_lock", deviceID, spaWrite{field: spaLocked, on: locked})
}

func (s *SpaService) SetTargetTemp(ctx context.Context, deviceID string, temperature int) error {
	if temperature <= 0 {
		metrics.Commands.WithLabelValues("spa_target_temp", metrics.OutcomeInvalid).Inc()
		return ErrInvalidTemperature
	}
	return s.command(ctx, "spa_target_temp", deviceID, spaWrite{field: spaTargetTemp, value: float64(temperature)})
}

func (s *SpaService) command(ctx context.Context, name, deviceID string, primary spaWrite) error {
	st, ok := s.cache.Read(deviceID)
	if !ok {
		metrics.Commands.WithLabelValues(name, metrics.OutcomeUnknownDevice).Inc()
		return fmt.Errorf("device %q: %w", deviceID, ErrDeviceNotFound)
	}
	if _, ok := spaFields(st); !ok {
		metrics.Commands.WithLabelValues(name, metrics.OutcomeWrongType).Inc()
		return fmt.Errorf("device %q: %w", deviceID, ErrWrongDeviceType)
	}

	attrs := map[string]any{primary.field.attr(): spaAttrValue(primary)}
	if err := s.cloud.Control(ctx, deviceID, attrs); err != nil {
		metrics.Commands.WithLabelValues(name, metrics.OutcomeCloudError).Inc()
		return fmt.Errorf("send %s to device %q: %w", name, deviceID, err)
	}

	// The command landed upstream. If the device was unbound between the
	// check above and now, the lost cache echo is repaired by the next poll.
	s.cache.Apply(deviceID, time.Now().Unix(), func(cur models.DeviceStatus) bool {
		fields, ok := spaFields(cur)
		if !ok {
			return false
		}
		for _, w := range spaCommandWrites(primary) {
			applySpaWrite(fields, w)
		}
		return true
	})

	metrics.Commands.WithLabelValues(name, metrics.OutcomeOK).Inc()
	_ = s.eventRepo.Append(ctx, models.DeviceEvent{
		EventID:     uuid.NewString(),
		DeviceID:    deviceID,
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventCommand,
		Description: "Command " + name + " accepted",
		Metadata:    map[string]any{"attrs": attrs},
	})
	return nil
}

// spaAttrValue renders the write for the control endpoint, which expects
// switches as 1/0 and the target temperature as a whole number.
func spaAttrValue(w spaWrite) any {
	if w.field == spaTargetTemp {
		return int(w.value)
	}
	if w.on {
		return 1
	}
	return 0
}
