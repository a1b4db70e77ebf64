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

var ErrInvalidTimerHours = errors.New("invalid filter timer: hours must be greater than 0")

// PoolFilterService issues control commands for pool filter pumps. Commands
// check the cache, post to the cloud, then echo the write into the cache.
// Pool filters have no derived switching between functions.
type PoolFilterService struct {
	cache     *StatusCache
	cloud     gizwits.Gateway
	eventRepo repository.EventRepo
}

func NewPoolFilterService(cache *StatusCache, cloud gizwits.Gateway, eventRepo repository.EventRepo) *PoolFilterService {
	return &PoolFilterService{cache: cache, cloud: cloud, eventRepo: eventRepo}
}

func (s *PoolFilterService) SetPower(ctx context.Context, deviceID string, on bool) error {
	value := 0
	if on {
		value = 1
	}
	return s.command(ctx, "pool_filter_power", deviceID, map[string]any{"power": value},
		func(st *models.PoolFilterStatus) { st.Power = on })
}

func (s *PoolFilterService) SetTimer(ctx context.Context, deviceID string, hours int) error {
	if hours <= 0 {
		metrics.Commands.WithLabelValues("pool_filter_timer", metrics.OutcomeInvalid).Inc()
		return ErrInvalidTimerHours
	}
	return s.command(ctx, "pool_filter_timer", deviceID, map[string]any{"time": hours},
		func(st *models.PoolFilterStatus) { st.RunHours = hours })
}

func (s *PoolFilterService) command(ctx context.Context, name, deviceID string, attrs map[string]any, mutate func(*models.PoolFilterStatus)) error {
	st, ok := s.cache.Read(deviceID)
	if !ok {
		metrics.Commands.WithLabelValues(name, metrics.OutcomeUnknownDevice).Inc()
		return fmt.Errorf("device %q: %w", deviceID, ErrDeviceNotFound)
	}
	if _, ok := st.(*models.PoolFilterStatus); !ok {
		metrics.Commands.WithLabelValues(name, metrics.OutcomeWrongType).Inc()
		return fmt.Errorf("device %q: %w", deviceID, ErrWrongDeviceType)
	}

	if err := s.cloud.Control(ctx, deviceID, attrs); err != nil {
		metrics.Commands.WithLabelValues(name, metrics.OutcomeCloudError).Inc()
		return fmt.Errorf("send %s to device %q: %w", name, deviceID, err)
	}

	s.cache.Apply(deviceID, time.Now().Unix(), func(cur models.DeviceStatus) bool {
		pf, ok := cur.(*models.PoolFilterStatus)
		if !ok {
			return false
		}
		mutate(pf)
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
