package service

import (
	"context"
	"errors"
	"time"

	"spacloud/internal/gizwits"
	"spacloud/internal/logger"
	"spacloud/internal/models"
	"spacloud/internal/repository"
)

type Authorization interface {
	SignUp(username, password string) (int, error)
	GenerateToken(username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Monitoring exposes read-only access to the bound devices and their cached
// statuses.
type Monitoring interface {
	ListDevices(ctx context.Context) []models.Device
	GetDevice(ctx context.Context, deviceID string) (models.Device, error)
	// DeviceStatus returns nil without an error when the device is bound but
	// has not produced an accepted snapshot yet.
	DeviceStatus(ctx context.Context, deviceID string) (models.DeviceStatus, error)
	// Snapshot returns the bound devices and cached statuses in one call,
	// shaped for the metrics collector.
	Snapshot() ([]models.Device, map[string]models.DeviceStatus)
}

// SpaControl exposes the writable functions of both spa generations.
type SpaControl interface {
	SetPower(ctx context.Context, deviceID string, on bool) error
	SetHeat(ctx context.Context, deviceID string, on bool) error
	SetFilter(ctx context.Context, deviceID string, on bool) error
	SetBubbles(ctx context.Context, deviceID string, on bool) error
	SetLocked(ctx context.Context, deviceID string, locked bool) error
	SetTargetTemp(ctx context.Context, deviceID string, temperature int) error
}

// PoolFilterControl exposes the writable pool filter functions.
type PoolFilterControl interface {
	SetPower(ctx context.Context, deviceID string, on bool) error
	SetTimer(ctx context.Context, deviceID string, hours int) error
}

// EventLog exposes the append-only service log with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Reconciler runs the background loop that keeps the device registry and
// status cache aligned with the cloud. Stop via context cancellation in
// main() for graceful shutdown.
type Reconciler interface {
	Run(ctx context.Context, tick time.Duration)
}

// Domain errors shared by the control and monitoring services.
var (
	ErrDeviceNotFound  = errors.New("device is not recognised")
	ErrWrongDeviceType = errors.New("operation does not apply to this device type")
)

// Config carries the settings the service layer needs beyond its wired
// dependencies.
type Config struct {
	SigningKey    string
	CloudUsername string
	CloudPassword string
}

// Service aggregates all sub-services. SpaControl and PoolFilterControl both
// declare SetPower, so callers select them by field name.
type Service struct {
	Monitoring
	SpaControl
	PoolFilterControl
	EventLog
	Reconciler
	Authorization
}

// NewService wires the repository layer and cloud gateway into concrete
// services. The registry and status cache are shared between the reconciler,
// which writes them, and the monitoring and control services, which read.
func NewService(repos *repository.Repository, cloud gizwits.Gateway, log *logger.Logger, cfg Config) *Service {
	registry := NewDeviceRegistry()
	cache := NewStatusCache()

	return &Service{
		Monitoring:        NewMonitoringService(registry, cache),
		SpaControl:        NewSpaService(cache, cloud, repos.Events),
		PoolFilterControl: NewPoolFilterService(cache, cloud, repos.Events),
		EventLog:          NewEventLogService(repos.Events),
		Reconciler:        NewReconcilerService(cloud, registry, cache, repos.Events, repos.Tokens, log.Named("reconciler"), cfg.CloudUsername, cfg.CloudPassword),
		Authorization:     NewAuthService(repos.Auth, cfg.SigningKey),
	}
}
