package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bcnelson/winterface/internal/access"
	"github.com/bcnelson/winterface/internal/domain"
	"github.com/bcnelson/winterface/internal/metrics"
	"github.com/bcnelson/winterface/internal/storage"
	"github.com/google/uuid"
)

// SettingsService validates, persists and applies admin interface settings.
type SettingsService struct {
	store   storage.Storage
	cfg     *access.Configuration
	overlay access.Source
	logger  *slog.Logger
	metrics *metrics.Metrics

	// writeMu serialises updates so a failed commit can be reverted.
	writeMu sync.Mutex

	mu             sync.Mutex
	debounce       time.Duration
	restartTimer   *time.Timer
	restartPending bool
	onRestart      func()
}

// NewSettingsService creates a new SettingsService. overlay may be nil; when
// set it is read before the store on Reload, so stored values win.
func NewSettingsService(
	store storage.Storage,
	cfg *access.Configuration,
	overlay access.Source,
	debounce time.Duration,
	logger *slog.Logger,
	m *metrics.Metrics,
) *SettingsService {
	return &SettingsService{
		store:    store,
		cfg:      cfg,
		overlay:  overlay,
		debounce: debounce,
		logger:   logger,
		metrics:  m,
	}
}

// OnRestart registers the function called when a change requires the
// listener to be re-initialised.
func (s *SettingsService) OnRestart(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRestart = fn
}

// Configuration returns the live configuration.
func (s *SettingsService) Configuration() *access.Configuration {
	return s.cfg
}

// Settings returns the effective value and the default of every option.
func (s *SettingsService) Settings() *domain.SettingsResponse {
	return &domain.SettingsResponse{
		Settings: s.cfg.Snapshot(),
		Defaults: access.Defaults(),
	}
}

// Get returns the effective value of one option.
func (s *SettingsService) Get(name string) (string, error) {
	if !access.IsOption(name) {
		return "", fmt.Errorf("setting %q: %w", name, domain.ErrNotFound)
	}
	return s.cfg.Value(name)
}

// Update validates value, stores it together with a change record and applies
// it to the live configuration. Invalid values leave both untouched.
func (s *SettingsService) Update(ctx context.Context, name, value, actor string) (access.Outcome, error) {
	if !access.IsOption(name) {
		return access.Rejected, fmt.Errorf("setting %q: %w", name, domain.ErrNotFound)
	}
	if err := s.cfg.Check(name, value); err != nil {
		s.metrics.ObserveSettingChange(name, access.Rejected)
		return access.Rejected, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	old, err := s.cfg.Value(name)
	if err != nil {
		return access.Rejected, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return access.Rejected, fmt.Errorf("starting transaction: %w", err)
	}

	outcome, err := s.cfg.Apply(name, value)
	if err != nil {
		_ = tx.Rollback()
		s.metrics.ObserveSettingChange(name, access.Rejected)
		return access.Rejected, err
	}

	// Store the normalised text so a later Load sees it as unchanged.
	normalised, err := s.cfg.Value(name)
	if err != nil {
		_ = tx.Rollback()
		s.revert(name, old)
		return access.Rejected, err
	}

	now := time.Now().UTC()
	if err := tx.PutSetting(ctx, &domain.Setting{Name: name, Value: normalised, UpdatedAt: now}); err != nil {
		_ = tx.Rollback()
		s.revert(name, old)
		return access.Rejected, fmt.Errorf("storing setting: %w", err)
	}

	change := &domain.SettingChange{
		ID:        uuid.New().String(),
		Name:      name,
		OldValue:  old,
		NewValue:  normalised,
		Outcome:   outcome.String(),
		Actor:     actor,
		CreatedAt: now,
	}
	if err := tx.CreateSettingChange(ctx, change); err != nil {
		_ = tx.Rollback()
		s.revert(name, old)
		return access.Rejected, fmt.Errorf("recording change: %w", err)
	}
	if err := tx.Commit(); err != nil {
		s.revert(name, old)
		return access.Rejected, fmt.Errorf("committing setting: %w", err)
	}

	s.metrics.ObserveSettingChange(name, outcome)
	s.logger.Info("Setting updated", "setting", name, "outcome", outcome.String(), "actor", actor)

	if outcome.NeedsRestart() {
		s.TriggerRestart()
	}
	return outcome, nil
}

// Reset stores and applies the default value of an option.
func (s *SettingsService) Reset(ctx context.Context, name, actor string) (access.Outcome, error) {
	value, ok := access.Defaults()[name]
	if !ok {
		return access.Rejected, fmt.Errorf("setting %q: %w", name, domain.ErrNotFound)
	}
	return s.Update(ctx, name, value, actor)
}

func (s *SettingsService) revert(name, old string) {
	if _, err := s.cfg.Apply(name, old); err != nil {
		s.logger.Error("Failed to revert setting", "setting", name, "error", err)
	}
}

// Changes lists recorded setting changes, newest first.
func (s *SettingsService) Changes(ctx context.Context, limit, offset int) ([]*domain.SettingChange, error) {
	return s.store.ListSettingChanges(ctx, limit, offset)
}

// Reload re-reads the overlay file and the store and applies any values that
// differ from the live configuration.
func (s *SettingsService) Reload(ctx context.Context) (access.Outcome, error) {
	s.writeMu.Lock()
	outcome, err := s.cfg.Load(ctx, s.sources()...)
	s.writeMu.Unlock()

	s.metrics.ObserveReload(err)
	if err != nil {
		s.logger.Warn("Settings reload rejected some values", "error", err)
	} else {
		s.logger.Info("Settings reloaded", "outcome", outcome.String())
	}
	if outcome.NeedsRestart() {
		s.TriggerRestart()
	}
	return outcome, err
}

func (s *SettingsService) sources() []access.Source {
	if s.overlay == nil {
		return []access.Source{s.store}
	}
	return []access.Source{s.overlay, s.store}
}

// TriggerRestart schedules a debounced listener restart.
// Multiple triggers within the debounce period result in a single restart.
func (s *SettingsService) TriggerRestart() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.onRestart == nil {
		return
	}
	if s.restartTimer != nil {
		s.restartTimer.Stop()
	}

	fn := s.onRestart
	s.restartPending = true
	s.restartTimer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		s.restartPending = false
		s.mu.Unlock()
		fn()
	})
}

// RestartPending reports whether a restart is scheduled.
func (s *SettingsService) RestartPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restartPending
}

// Close cancels any pending restart.
func (s *SettingsService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.restartTimer != nil {
		s.restartTimer.Stop()
	}
	s.restartPending = false
}
