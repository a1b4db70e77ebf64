package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spacloud/internal/gizwits"
	"spacloud/internal/logger"
	"spacloud/internal/metrics"
	"spacloud/internal/models"
	"spacloud/internal/repository"
)

const (
	// bindingsRefreshInterval is how often the bound device list is reloaded.
	// Bindings change rarely, so this runs far less often than status polls.
	bindingsRefreshInterval = 15 * time.Minute
	// loginCooldown spaces login attempts out. The cloud rate-limits the
	// login endpoint hard and repeated failures would lock the account out.
	loginCooldown = 5 * time.Minute
	// tokenExpiryMargin renews the token well before the cloud would reject it.
	tokenExpiryMargin = time.Hour
)

// ReconcilerService keeps the device registry and status cache aligned with
// the cloud. It owns the cloud session: restoring a persisted token on start,
// renewing it near expiry and dropping it when the cloud rejects it.
type ReconcilerService struct {
	cloud     gizwits.Gateway
	registry  *DeviceRegistry
	cache     *StatusCache
	eventRepo repository.EventRepo
	tokenRepo repository.TokenRepo
	log       *logger.Logger
	username  string
	password  string

	// Session state below is touched only by the Run goroutine.
	token            models.CloudToken
	lastLoginAttempt time.Time
}

func NewReconcilerService(
	cloud gizwits.Gateway,
	registry *DeviceRegistry,
	cache *StatusCache,
	eventRepo repository.EventRepo,
	tokenRepo repository.TokenRepo,
	log *logger.Logger,
	username, password string,
) *ReconcilerService {
	return &ReconcilerService{
		cloud:     cloud,
		registry:  registry,
		cache:     cache,
		eventRepo: eventRepo,
		tokenRepo: tokenRepo,
		log:       log,
		username:  username,
		password:  password,
	}
}

// Run polls device statuses at the given interval until ctx is canceled,
// refreshing the bindings list on its own slower schedule.
func (s *ReconcilerService) Run(ctx context.Context, tick time.Duration) {
	s.bootstrap(ctx)

	poll := time.NewTicker(tick)
	defer poll.Stop()
	refresh := time.NewTicker(bindingsRefreshInterval)
	defer refresh.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-refresh.C:
			s.refreshBindings(ctx)
		case <-poll.C:
			s.pollOnce(ctx)
		}
	}
}

// bootstrap restores the persisted cloud session and primes the registry and
// cache so reads work before the first tick fires.
func (s *ReconcilerService) bootstrap(ctx context.Context) {
	tok, err := s.tokenRepo.Load(ctx)
	if err != nil {
		s.log.Warnw("cloud_token_load_failed", "err", err)
	} else if tok.Token != "" {
		s.token = tok
		s.cloud.SetToken(tok.Token)
		s.log.Infow("cloud_token_restored", "uid", tok.UID)
	}

	s.refreshBindings(ctx)
	s.pollOnce(ctx)
}

// ensureToken logs in when there is no usable token. Within the cooldown
// window it returns without trying, keeping whatever token is installed.
func (s *ReconcilerService) ensureToken(ctx context.Context) error {
	expiresSoon := s.token.ExpireAt > 0 && time.Until(time.Unix(s.token.ExpireAt, 0)) < tokenExpiryMargin
	if s.token.Token != "" && !expiresSoon {
		return nil
	}
	if time.Since(s.lastLoginAttempt) < loginCooldown {
		if s.token.Token != "" {
			return nil
		}
		return errors.New("cloud login is cooling down after a recent attempt")
	}
	s.lastLoginAttempt = time.Now()

	tok, err := s.cloud.Login(ctx, s.username, s.password)
	if err != nil {
		metrics.CloudLogins.WithLabelValues("error").Inc()
		return fmt.Errorf("cloud login: %w", err)
	}
	metrics.CloudLogins.WithLabelValues("ok").Inc()

	s.token = models.CloudToken{UID: tok.UID, Token: tok.Token, ExpireAt: tok.ExpireAt}
	if err := s.tokenRepo.Save(ctx, s.token); err != nil {
		s.log.Warnw("cloud_token_save_failed", "err", err)
	}
	_ = s.eventRepo.Append(ctx, models.DeviceEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  time.Now().UTC(),
		Type:        models.EventReauth,
		Description: "Obtained a fresh cloud token",
		Metadata:    map[string]any{"uid": tok.UID, "expire_at": tok.ExpireAt},
	})
	s.log.Infow("cloud_login_ok", "uid", tok.UID)
	return nil
}

// invalidateToken drops a token the cloud has rejected so the next tick
// triggers a login.
func (s *ReconcilerService) invalidateToken() {
	s.token = models.CloudToken{}
	s.cloud.SetToken("")
}

// refreshBindings reloads the bound device list, updates the registry and
// prunes cache entries for devices that are no longer bound.
func (s *ReconcilerService) refreshBindings(ctx context.Context) {
	if err := s.ensureToken(ctx); err != nil {
		s.log.Errorw("cloud_login_failed", "err", err)
		return
	}

	bindings, err := s.cloud.Bindings(ctx)
	if err != nil {
		if errors.Is(err, gizwits.ErrTokenInvalid) {
			s.invalidateToken()
		}
		s.log.Errorw("bindings_refresh_failed", "err", err)
		return
	}

	devices := make([]models.Device, 0, len(bindings))
	for _, b := range bindings {
		devices = append(devices, models.Device{
			ID:              b.DeviceID,
			Alias:           b.Alias,
			Product:         b.ProductName,
			Type:            models.DeviceTypeForProduct(b.ProductName),
			Protocol:        b.Protocol,
			MCUSoftVersion:  b.MCUSoftVersion,
			MCUHardVersion:  b.MCUHardVersion,
			WifiSoftVersion: b.WifiSoftVersion,
			WifiHardVersion: b.WifiHardVersion,
			Online:          b.IsOnline,
		})
	}
	s.registry.ReplaceAll(devices)
	s.cache.Retain(s.registry.IDs())
	s.log.Infow("bindings_refreshed", "devices", len(devices))
}

func (s *ReconcilerService) pollOnce(ctx context.Context) {
	for _, d := range s.registry.List() {
		if ctx.Err() != nil {
			return
		}
		s.pollDevice(ctx, d)
	}
}

// pollDevice fetches one device snapshot and offers it to the status cache.
// Failures affect only this device; the rest of the sweep continues.
func (s *ReconcilerService) pollDevice(ctx context.Context, d models.Device) {
	data, err := s.cloud.DeviceData(ctx, d.ID)
	if err != nil {
		if errors.Is(err, gizwits.ErrTokenInvalid) {
			s.invalidateToken()
		}
		metrics.PollErrors.WithLabelValues("fetch").Inc()
		s.log.Errorw("device_poll_failed", "device_id", d.ID, "err", err)
		return
	}

	// A zero timestamp is the cloud's offline marker. The attribute payload
	// carries nothing trustworthy, so it is dropped before decoding.
	if data.UpdatedAt == 0 {
		metrics.PollMerges.WithLabelValues(MergeRejectedOffline.String()).Inc()
		s.log.Debugw("device_reported_offline", "device_id", d.ID)
		return
	}

	if d.Type == models.DeviceTypeUnknown {
		s.log.Warnw("unsupported_device_type", "device_id", d.ID, "product", d.Product, "attrs", data.Attrs)
	}

	st, err := DecodeStatus(d.Type, data.UpdatedAt, data.Attrs)
	if err != nil {
		metrics.PollErrors.WithLabelValues("decode").Inc()
		s.log.Errorw("device_decode_failed", "device_id", d.ID, "err", err)
		_ = s.eventRepo.Append(ctx, models.DeviceEvent{
			EventID:     uuid.NewString(),
			DeviceID:    d.ID,
			OccurredAt:  time.Now().UTC(),
			Type:        models.EventDecodeError,
			Description: err.Error(),
			Metadata:    map[string]any{"attrs": data.Attrs},
		})
		return
	}

	outcome := s.cache.MergeFromPoll(d.ID, st)
	metrics.PollMerges.WithLabelValues(outcome.String()).Inc()
	if outcome == MergeRejectedStale {
		s.log.Debugw("stale_snapshot_rejected", "device_id", d.ID, "timestamp", st.Timestamp())
	}
}
